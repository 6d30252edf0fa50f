package schemas

import "github.com/JonMunkholm/reconcile/internal/core"

func init() {
	registerRevenueReport()
}

// registerRevenueReport defines the monthly data-partner revenue report.
// Partner exports disagree wildly on header spelling, so this schema
// carries the largest alias table of the built-ins; the spellings come
// from confirmed partner files, hence the raised alias confidence.
func registerRevenueReport() {
	core.Register(core.SchemaDefinition{
		Info: core.SchemaInfo{
			Key:         "revenue_report",
			Group:       "Finance",
			Label:       "Revenue Report",
			Description: "Monthly partner revenue export with segment-level pricing and share splits",
		},
		Fields: []core.FieldSpec{
			{Name: "partnerName", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "eMonth", Type: core.FieldText, Required: true, Normalizer: NormalizeMonth},
			{Name: "country", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "targetingProduct", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "agencyOriginal", Type: core.FieldText, Required: true},
			{Name: "distribution", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "dspOriginal", Type: core.FieldText, Required: true},
			{Name: "monetisation", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "segId", Type: core.FieldText, Required: true, Normalizer: NormalizeSegmentID},
			{Name: "segName", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "extDataId", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "curr", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "price", Type: core.FieldNumeric, Required: false, AllowEmpty: true},
			{Name: "cpmAtt", Type: core.FieldNumeric, Required: false, AllowEmpty: true},
			{Name: "cpmNet", Type: core.FieldNumeric, Required: false, AllowEmpty: true},
			{Name: "impressions", Type: core.FieldNumeric, Required: true, Normalizer: NormalizeInteger},
			{Name: "grossRev", Type: core.FieldNumeric, Required: true},
			{Name: "netRev", Type: core.FieldNumeric, Required: true},
			{Name: "shareRev", Type: core.FieldNumeric, Required: false, AllowEmpty: true},
			{Name: "attributePath", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "attributeName", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "cmp", Type: core.FieldText, Required: false, AllowEmpty: true},
		},
		Aliases: aliasMap(map[string][]string{
			"partnerName":      {"Data Partner Name", "Data Partner", "Partner"},
			"eMonth":           {"Month of Report", "Report Month", "Reporting Month", "Month"},
			"country":          {"Country Code"},
			"targetingProduct": {"Product Name", "Targeting Product", "Product"},
			"agencyOriginal":   {"Client", "Client Name", "Agency", "Agency Name"},
			"distribution":     {"Activation Type", "Activation Channel"},
			"dspOriginal":      {"Platform Partner Name (DSP)", "Platform Partner", "DSP", "DSP Name"},
			"monetisation":     {"Monetisation Type", "Monetization Type"},
			"segId":            {"Segment ID", "Seg ID"},
			"segName":          {"Segment Name", "Seg Name"},
			"extDataId":        {"External Dataset ID", "External Data ID", "Dataset ID"},
			"curr":             {"Report Currency", "Currency", "Currency Code"},
			"price":            {"Net Dataset Price", "Dataset Price"},
			"cpmAtt":           {"ATTRIBUTE CPM in EUR", "Attribute CPM", "CPM"},
			"cpmNet":           {"NET ATTRIBUTE CPM in EUR", "Net Attribute CPM", "Net CPM"},
			"impressions":      {"Share of Quantity", "Quantity", "Impression Count"},
			"grossRev":         {"Net Campaign Revenue", "Campaign Revenue", "Gross Revenue"},
			"netRev":           {"Data Partner Revenue", "Partner Revenue", "Net Revenue"},
			"shareRev":         {"Data Partner Revenue Share", "Partner Revenue Share", "Revenue Share"},
			"attributePath":    {"Taxonomy", "Taxonomy Path", "Attribute Path"},
			"attributeName":    {"Dataset Name", "Attribute Name"},
			"cmp":              {"Price Type", "Pricing Model"},
		}),
		AliasConfidence: 0.95,
		TablePrefix:     "revenue_",
	})
}
