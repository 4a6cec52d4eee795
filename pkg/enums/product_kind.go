package enums

// ProductKind classifies a commerce line item by its configured product id.
type ProductKind string

const (
	ProductKindAffiliation ProductKind = "affiliation"
	ProductKindLicence     ProductKind = "licence"
	ProductKindUnknown     ProductKind = "unknown"
)
