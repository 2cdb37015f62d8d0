package domain

import "time"

// Document represents one Portfolio Page persisted for a listing and document type
type Document struct {
	ID             string         `json:"id" reindex:"id,,pk"`
	ListingID      string         `json:"listingId" reindex:"listing_id"`
	DocumentTypeID string         `json:"documentTypeId" reindex:"document_type_id"`
	DocumentData   DocumentData   `json:"documentData"`
	Status         DocumentStatus `json:"status" reindex:"status"`
	Version        int64          `json:"version" reindex:"version"`
	CreatedAt      time.Time      `json:"createdAt" reindex:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" reindex:"updated_at"`
}

// DocumentStatus represents the lifecycle status of a document
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusPublished DocumentStatus = "published"
)

// DocumentRef identifies a document by its listing and document type pair
type DocumentRef struct {
	ListingID      string `json:"listingId"`
	DocumentTypeID string `json:"documentTypeId"`
}

// Valid reports whether both halves of the selection are set
func (r DocumentRef) Valid() bool {
	return r.ListingID != "" && r.DocumentTypeID != ""
}

// DocumentData is a named-section bag; every section is independently nullable
type DocumentData struct {
	HeadlineData     *HeadlineData     `json:"headlineData,omitempty"`
	AddressData      *AddressData      `json:"addressData,omitempty"`
	FinanceData      *FinanceData      `json:"financeData,omitempty"`
	LogoData         *LogoData         `json:"logoData,omitempty"`
	PhotoData        *PhotoData        `json:"photoData,omitempty"`
	PropertyCopyData *PropertyCopyData `json:"propertyCopyData,omitempty"`
	SaleTypeData     *SaleTypeData     `json:"saleTypeData,omitempty"`
	AgentsData       *AgentsData       `json:"agentsData,omitempty"`
}

// HeadlineData holds the page headline
type HeadlineData struct {
	Headline string `json:"headline"`
}

// AddressData holds the property address; AddressLine1/2 are derived display strings
type AddressData struct {
	StreetNumber string `json:"streetNumber"`
	Street       string `json:"street"`
	Suburb       string `json:"suburb"`
	State        string `json:"state"`
	Postcode     string `json:"postcode"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
}

// FinanceType represents how the finance amount is labelled
type FinanceType string

const (
	FinanceTypeRent      FinanceType = "rent"
	FinanceTypeNetIncome FinanceType = "net_income"
	FinanceTypeCustom    FinanceType = "custom"
)

// FinanceData holds finance copy and the headline amount.
// CustomFinanceType is serialized as null when unset so that a patch clears it.
type FinanceData struct {
	FinanceCopy       string      `json:"financeCopy"`
	FinanceType       FinanceType `json:"financeType"`
	CustomFinanceType *string     `json:"customFinanceType"`
	FinanceAmount     string      `json:"financeAmount"`
}

// LogoOrientation represents how two logos are arranged
type LogoOrientation string

const (
	LogoOrientationHorizontal LogoOrientation = "horizontal"
	LogoOrientationVertical   LogoOrientation = "vertical"
)

// MaxLogos is the largest allowed logo count
const MaxLogos = 2

// LogoData holds the agency logos; len(Logos) == LogoCount after every count change
type LogoData struct {
	LogoCount       int             `json:"logoCount"`
	LogoOrientation LogoOrientation `json:"logoOrientation"`
	Logos           []string        `json:"logos"`
}

// Photo slot bounds
const (
	MinPhotos = 1
	MaxPhotos = 4
)

// CropRect is a crop rectangle in the original image's pixel space
type CropRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Photo is one photo slot: uncropped source, cropped raster and the crop used to derive it
type Photo struct {
	Original string   `json:"original"`
	Cropped  string   `json:"cropped"`
	Crop     CropRect `json:"crop"`
}

// PhotoData holds the photo grid. Entries at index >= PhotoCount are retained but never rendered.
type PhotoData struct {
	PhotoCount int      `json:"photoCount"`
	Photos     []*Photo `json:"photos"`
}

// PropertyCopyData holds newline-delimited bullet blocks
type PropertyCopyData struct {
	PropertyCopy string `json:"propertyCopy"`
}

// SaleType represents the sale method
type SaleType string

const (
	SaleTypeAuction    SaleType = "auction"
	SaleTypeExpression SaleType = "expression"
)

// ExpressionOfInterest holds the closing details of an expressions-of-interest campaign
type ExpressionOfInterest struct {
	ClosingDate string `json:"closingDate"`
	ClosingTime string `json:"closingTime"`
	ClosingAmPm string `json:"closingAmPm"`
}

// SaleTypeData holds the sale method. Only the sub-object matching SaleType is meaningful.
type SaleTypeData struct {
	SaleType             *SaleType             `json:"saleType"`
	AuctionID            string                `json:"auctionId"`
	ExpressionOfInterest *ExpressionOfInterest `json:"expressionOfInterest,omitempty"`
}

// MaxAgents is the largest number of agent contacts on a page
const MaxAgents = 5

// Agent is one contact on the page
type Agent struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// AgentsData holds the agent contacts, unique by name
type AgentsData struct {
	Agents []Agent `json:"agents"`
}
