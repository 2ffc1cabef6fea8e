package analysis

import "slices"

var industryKeywords = map[string][]string{
	"software": {
		"JavaScript", "TypeScript", "Python", "Java", "React", "Next.js", "Node.js", "AWS", "Docker",
		"Kubernetes", "PostgreSQL", "MongoDB", "Redis", "GraphQL", "REST API", "Git", "Agile", "CI/CD",
	},
	"data": {
		"Python", "R", "SQL", "Pandas", "NumPy", "Tableau", "Power BI", "Machine Learning", "TensorFlow",
		"PyTorch", "Spark", "Kafka", "Airflow", "Snowflake", "dbt", "Statistics",
	},
	"marketing": {
		"SEO", "SEM", "Google Analytics", "Google Ads", "Facebook Ads", "HubSpot", "Salesforce",
		"Content Marketing", "Copywriting", "A/B Testing", "Email Marketing", "CRM", "Social Media",
	},
	"finance": {
		"Excel", "VBA", "Python", "Bloomberg", "Financial Modeling", "DCF", "Valuation", "Risk Management",
		"SQL", "Power BI", "Quantitative Analysis", "GAAP", "IFRS",
	},
	"healthcare": {
		"Epic", "Cerner", "HIPAA", "EMR", "EHR", "HL7", "FHIR", "Clinical Research", "Biostatistics",
		"Medical Coding", "FDA", "GCP", "ICD-10",
	},
	"design": {
		"Figma", "Adobe XD", "Sketch", "Adobe Creative Suite", "User Research", "Wireframing", "Prototyping",
		"UI/UX", "Typography", "Design Systems", "Accessibility",
	},
	"sales": {
		"Salesforce", "HubSpot", "CRM", "B2B", "B2C", "Pipeline Management", "Forecasting",
		"LinkedIn Sales Navigator", "Cold Outreach", "Account Management", "Negotiation",
	},
	"general": {
		"Leadership", "Project Management", "Communication", "Problem Solving", "Agile", "Microsoft Office",
		"Data Analysis", "Strategic Planning", "Customer Service",
	},
}

var industryProjects = map[string][]string{
	"software": {
		"Full-stack web app with React & Node.js",
		"Mobile app with React Native",
		"Rest API with comprehensive docs",
		"AI-powered chatbot",
		"Microservices with Docker/K8s",
	},
	"data": {
		"Predictive ML model",
		"Real-time data pipeline",
		"Interactive Tableau/Power BI dashboard",
		"Customer segmentation model",
		"NLP text analysis project",
	},
	"marketing": {
		"SEO-optimized content campaign",
		"Social media growth strategy with metrics",
		"Email drip campaign A/B test",
		"Brand identity redesign",
		"Marketing analytics dashboard",
	},
	"finance": {
		"DCF valuation model",
		"Risk assessment dashboard",
		"Portfolio optimizer",
		"Automated financial report",
		"Algorithmic trading backtest",
	},
	"healthcare": {
		"Patient management system",
		"Healthcare analytics dashboard",
		"HIPAA-compliant app",
		"Clinical data visualization",
		"Telemedicine platform",
	},
	"design": {
		"End-to-end brand identity",
		"Mobile app UX redesign",
		"Design system with component library",
		"E-commerce UX audit & redesign",
		"Accessibility audit & fix",
	},
	"sales": {
		"CRM implementation & adoption plan",
		"Sales process automation",
		"Pipeline management dashboard",
		"Lead scoring model",
		"Sales enablement program",
	},
	"general": {
		"Cross-functional project delivery",
		"Process improvement initiative",
		"Team performance dashboard",
		"Client onboarding redesign",
		"Cost-reduction analysis",
	},
}

// industryOrder fixes the listing order of Industries.
var industryOrder = []string{"software", "data", "marketing", "finance", "healthcare", "design", "sales", "general"}

// Keywords returns a copy of the canonical keyword list for an industry tag.
func Keywords(industry string) ([]string, bool) {
	kws, ok := industryKeywords[industry]
	return slices.Clone(kws), ok
}

// Projects returns a copy of the example project list for an industry tag.
func Projects(industry string) ([]string, bool) {
	projects, ok := industryProjects[industry]
	return slices.Clone(projects), ok
}

// Industries lists the known industry tags.
func Industries() []string {
	return slices.Clone(industryOrder)
}

func IsKnownIndustry(industry string) bool {
	_, ok := industryKeywords[industry]
	return ok
}
