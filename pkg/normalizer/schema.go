package normalizer

import "strings"

// Field is a logical record field.
type Field string

const (
	FieldDate       Field = "date"
	FieldClientCode Field = "client_code"
	FieldClientName Field = "client_name"
	FieldProduct    Field = "product"
	FieldPlant      Field = "plant"
	FieldCompleted  Field = "completed"
	FieldPlanned    Field = "planned"
	FieldYear       Field = "year"
	FieldMonth      Field = "month"
)

// Schema lists, per logical field, the raw field names accepted for it, in probe order.
// Each alias is also tried lowercased and capitalized.
type Schema map[Field][]string

// DefaultSchema returns the aliases found in the production_records exports.
func DefaultSchema() Schema {
	return Schema{
		FieldDate:       {"fecha", "date"},
		FieldClientCode: {"CveCliente", "cvecliente", "cveCliente", "CVE_CLIENTE"},
		FieldClientName: {"cliente", "client", "customer"},
		FieldProduct:    {"Descripcion", "producto", "product", "productName", "descripcion", "producto_desc"},
		FieldPlant:      {"planta", "plant", "planta_nombre"},
		FieldCompleted:  {"completado", "completado real", "total_kg", "kg", "kilos"},
		FieldPlanned:    {"planificado", "planificado real"},
		FieldYear:       {"año", "anio", "year"},
		FieldMonth:      {"mes", "month"},
	}
}

// Merge returns a copy of s where fields present in other replace s's aliases.
func (s Schema) Merge(other Schema) Schema {
	out := make(Schema, len(s)+len(other))
	for f, aliases := range s {
		out[f] = append([]string(nil), aliases...)
	}
	for f, aliases := range other {
		if len(aliases) > 0 {
			out[f] = append([]string(nil), aliases...)
		}
	}
	return out
}

// variants returns name, its lowercase form and its capitalized form, without duplicates.
func variants(name string) []string {
	out := []string{name}
	for _, v := range []string{strings.ToLower(name), capitalize(name)} {
		if v != out[0] && (len(out) < 2 || v != out[1]) {
			out = append(out, v)
		}
	}
	return out
}
