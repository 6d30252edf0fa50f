package schemas

import "github.com/JonMunkholm/reconcile/internal/core"

func init() {
	registerArInvoices()
}

func registerArInvoices() {
	core.Register(core.SchemaDefinition{
		Info: core.SchemaInfo{
			Key:         "ar_invoices",
			Group:       "Finance",
			Label:       "AR Invoices",
			Description: "Invoice line detail from the accounting system",
		},
		Fields: []core.FieldSpec{
			{Name: "document_number", Type: core.FieldText, Required: true},
			{Name: "transaction_type", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "customer_id", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "customer_name", Type: core.FieldText, Required: true},
			{Name: "invoice_date", Type: core.FieldDate, Required: true},
			{Name: "due_date", Type: core.FieldDate, Required: false, AllowEmpty: true},
			{Name: "memo", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "item", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "quantity", Type: core.FieldNumeric, Required: false, AllowEmpty: true},
			{Name: "unit_price", Type: core.FieldNumeric, Required: false, AllowEmpty: true},
			{Name: "amount", Type: core.FieldNumeric, Required: true},
			{Name: "line_start_date", Type: core.FieldDate, Required: false, AllowEmpty: true},
			{Name: "line_end_date", Type: core.FieldDate, Required: false, AllowEmpty: true},
			{Name: "account", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "shipping_city", Type: core.FieldText, Required: false, AllowEmpty: true},
			{Name: "shipping_state", Type: core.FieldText, Required: false, AllowEmpty: true, Normalizer: NormalizeUsState},
			{Name: "shipping_country", Type: core.FieldText, Required: false, AllowEmpty: true},
		},
		Aliases: aliasMap(map[string][]string{
			"document_number":  {"Document Number", "Doc #", "Doc Number", "Invoice #"},
			"transaction_type": {"Type"},
			"customer_id":      {"Customer Internal ID", "Internal ID"},
			"customer_name":    {"Name", "Customer"},
			"invoice_date":     {"Date"},
			"due_date":         {"Date Due"},
			"quantity":         {"Qty"},
			"unit_price":       {"Rate"},
			"line_start_date":  {"Start Date (Line)", "Line Start"},
			"line_end_date":    {"End Date (Line Level)", "Line End"},
			"shipping_city":    {"Shipping Address City", "Ship To City"},
			"shipping_state":   {"Shipping Address State", "Ship To State"},
			"shipping_country": {"Shipping Address Country", "Ship To Country"},
		}),
	})
}
