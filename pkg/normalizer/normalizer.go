// Package normalizer turns loosely typed raw production records into
// models.Record values. All functions are pure.
package normalizer

import (
	"prodreport/pkg/models"
)

// Resolver normalizes raw records against an injected client mapping and alias schema.
// It is read-only after construction and safe for concurrent use.
type Resolver struct {
	schema  Schema
	mapping models.ClientMapping
}

// NewResolver builds a Resolver. A nil schema means DefaultSchema.
func NewResolver(mapping models.ClientMapping, schema Schema) *Resolver {
	if schema == nil {
		schema = DefaultSchema()
	}
	m := make(models.ClientMapping, len(mapping))
	for code, name := range mapping {
		m[code] = name
	}
	return &Resolver{schema: schema, mapping: m}
}

// lookup returns the first non-empty value among the aliases of f.
func (r *Resolver) lookup(raw models.RawRecord, f Field) (any, bool) {
	for _, alias := range r.schema[f] {
		for _, name := range variants(alias) {
			v, ok := raw[name]
			if !ok || v == nil {
				continue
			}
			if s, isStr := v.(string); isStr && stringValue(s) == "" {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

func (r *Resolver) str(raw models.RawRecord, f Field) string {
	v, ok := r.lookup(raw, f)
	if !ok {
		return ""
	}
	return stringValue(v)
}

// num returns the first non-zero numeric value among the aliases of f.
func (r *Resolver) num(raw models.RawRecord, f Field) float64 {
	for _, alias := range r.schema[f] {
		for _, name := range variants(alias) {
			if n := ParseNumber(raw[name]); n != 0 {
				return n
			}
		}
	}
	return 0
}

// ClientCode returns the trimmed client code and whether one was present.
func (r *Resolver) ClientCode(raw models.RawRecord) (string, bool) {
	code := r.str(raw, FieldClientCode)
	return code, code != ""
}

// ClientName resolves the display name of a record's client: mapped code,
// then raw client name, then models.NoClient. It never returns "".
func (r *Resolver) ClientName(raw models.RawRecord) string {
	if code, ok := r.ClientCode(raw); ok {
		if name, hit := r.mapping[code]; hit && name != "" {
			return name
		}
	}
	if name := r.str(raw, FieldClientName); name != "" {
		return name
	}
	return models.NoClient
}

// Normalize converts raw into a Record. ok is false when raw has no parseable
// date, which excludes it from every date-bucketed view.
func (r *Resolver) Normalize(raw models.RawRecord) (models.Record, bool) {
	if raw == nil {
		return models.Record{}, false
	}
	dv, found := r.lookup(raw, FieldDate)
	if !found {
		return models.Record{}, false
	}
	date, ok := ParseDate(dv)
	if !ok {
		return models.Record{}, false
	}

	code, hasCode := r.ClientCode(raw)
	rec := models.Record{
		Date:          date,
		ClientCode:    code,
		HasClientCode: hasCode,
		ClientName:    r.ClientName(raw),
		Product:       r.str(raw, FieldProduct),
		Plant:         r.str(raw, FieldPlant),
		CompletedQty:  nonNegative(r.num(raw, FieldCompleted)),
		PlannedQty:    nonNegative(r.num(raw, FieldPlanned)),
	}
	if rec.Product == "" {
		rec.Product = models.NoProduct
	}
	if rec.Plant == "" {
		rec.Plant = rec.ClientName
	}

	// explicit period fields only count when both are set; mes is 1-based
	year := int(r.num(raw, FieldYear))
	month := int(r.num(raw, FieldMonth))
	if year != 0 && month != 0 {
		rec.Year = year
		rec.Month = month - 1
		rec.HasPeriod = true
	}
	return rec, true
}

// NormalizeAll normalizes every raw record, preserving order. excluded counts
// the records dropped for lack of a parseable date.
func (r *Resolver) NormalizeAll(raws []models.RawRecord) (records []models.Record, excluded int) {
	records = make([]models.Record, 0, len(raws))
	for _, raw := range raws {
		rec, ok := r.Normalize(raw)
		if !ok {
			excluded++
			continue
		}
		records = append(records, rec)
	}
	return records, excluded
}

// Normalize converts raw with the default schema.
func Normalize(raw models.RawRecord, mapping models.ClientMapping) (models.Record, bool) {
	return NewResolver(mapping, nil).Normalize(raw)
}

// ResolveClientName resolves a client display name with the default schema.
func ResolveClientName(raw models.RawRecord, mapping models.ClientMapping) string {
	return NewResolver(mapping, nil).ClientName(raw)
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
