package schemas

import "github.com/JonMunkholm/reconcile/internal/core"

func init() {
	registerCrmAccounts()
	registerCrmOpportunities()
}

func registerCrmAccounts() {
	core.Register(core.SchemaDefinition{
		Info: core.SchemaInfo{
			Key:         "crm_accounts",
			Group:       "CRM",
			Label:       "Accounts",
			Description: "Account master export from the CRM",
		},
		Fields: []core.FieldSpec{
			{Name: "account_id", Type: core.FieldText, Required: true},
			{Name: "account_name", Type: core.FieldText, Required: true},
			{Name: "account_type", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "industry", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "billing_city", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "billing_state", Type: core.FieldText, Required: false, AllowEmpty: true, Normalizer: NormalizeUsState},
			{Name: "billing_country", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "owner", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "created_date", Type: core.FieldDate, Required: false, AllowEmpty: true},
			{Name: "last_activity", Type: core.FieldDate, Required: false, AllowEmpty: true},
		},
		Aliases: aliasMap(map[string][]string{
			"account_id":      {"Account ID (18)", "Account ID Casesafe", "Acct ID"},
			"account_name":    {"Acct Name", "Company", "Company Name"},
			"account_type":    {"Type"},
			"billing_city":    {"City"},
			"billing_state":   {"State/Province", "State", "Billing State/Province"},
			"billing_country": {"Country"},
			"owner":           {"Account Owner", "Owner Name"},
			"created_date":    {"Created On"},
			"last_activity":   {"Last Activity Date"},
		}),
	})
}

func registerCrmOpportunities() {
	core.Register(core.SchemaDefinition{
		Info: core.SchemaInfo{
			Key:         "crm_opportunities",
			Group:       "CRM",
			Label:       "Opportunities",
			Description: "Opportunity line items with contract terms and pricing",
		},
		Fields: []core.FieldSpec{
			{Name: "opportunity_id", Type: core.FieldText, Required: true},
			{Name: "opportunity_name", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "account_name", Type: core.FieldText, Required: true},
			{Name: "stage", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "close_date", Type: core.FieldDate, Required: false, AllowEmpty: true},
			{Name: "booked_date", Type: core.FieldDate, Required: false, AllowEmpty: true},
			{Name: "fiscal_period", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "contract_start_date", Type: core.FieldDate, Required: false, AllowEmpty: true},
			{Name: "contract_end_date", Type: core.FieldDate, Required: false, AllowEmpty: true},
			{Name: "product_name", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "product_code", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "deployment_type", Type: core.FieldEnum, Required: false, AllowEmpty: true, EnumValues: []string{"SaaS", "On-Prem", "Hybrid"}},
			{Name: "amount", Type: core.FieldNumeric, Required: true},
			{Name: "quantity", Type: core.FieldNumeric, Required: false, AllowEmpty: true},
			{Name: "list_price", Type: core.FieldNumeric, Required: false, AllowEmpty: true},
			{Name: "sales_price", Type: core.FieldNumeric, Required: false, AllowEmpty: true},
			{Name: "total_price", Type: core.FieldNumeric, Required: false, AllowEmpty: true},
			{Name: "term_in_months", Type: core.FieldNumeric, Required: false, AllowEmpty: true},
			{Name: "active_product", Type: core.FieldBool, Required: false, AllowEmpty: true},
		},
		Aliases: aliasMap(map[string][]string{
			"opportunity_id":      {"Opportunity ID (18)", "Opp ID", "Opportunity ID Casesafe"},
			"opportunity_name":    {"Opp Name"},
			"account_name":        {"Account", "Acct Name"},
			"close_date":          {"Close Dt", "Closed Date"},
			"booked_date":         {"Booking Date"},
			"contract_start_date": {"Contract Start"},
			"contract_end_date":   {"Contract End"},
			"deployment_type":     {"Deployment"},
			"amount":              {"Opportunity Amount", "Total Amount"},
			"quantity":            {"Qty"},
			"term_in_months":      {"Term (Months)", "Term"},
			"active_product":      {"Active", "Is Active"},
		}),
	})
}
