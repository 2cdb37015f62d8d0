package validation

import "github.com/aj0urdain/Landmark-App-sub000/internal/domain"

// Section schemas. Every property is optional so the same schema checks both a
// partial field change and a complete section object. Business rules that must be
// silent no-ops (duplicate agent, partial postcode) are left to the editors.
var sectionSchemas = map[domain.Section]string{
	domain.SectionHeadline: `{
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"headline": {"type": "string", "maxLength": 200}
		}
	}`,

	domain.SectionAddress: `{
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"streetNumber": {"type": "string", "maxLength": 20},
			"street":       {"type": "string", "maxLength": 120},
			"suburb":       {"type": "string", "maxLength": 80},
			"state":        {"type": "string", "maxLength": 40},
			"postcode":     {"type": "string", "maxLength": 10},
			"addressLine1": {"type": "string", "maxLength": 200},
			"addressLine2": {"type": "string", "maxLength": 200}
		}
	}`,

	domain.SectionFinance: `{
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"financeCopy":       {"type": "string", "maxLength": 2000},
			"financeType":       {"type": "string", "enum": ["", "rent", "net_income", "custom"]},
			"customFinanceType": {"type": ["string", "null"], "maxLength": 60},
			"financeAmount":     {"type": "string", "maxLength": 30}
		}
	}`,

	domain.SectionLogo: `{
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"logoCount":       {"type": "integer", "minimum": 0, "maximum": 2},
			"logoOrientation": {"type": "string", "enum": ["", "horizontal", "vertical"]},
			"logos":           {"type": ["array", "null"], "maxItems": 2, "items": {"type": "string"}}
		}
	}`,

	domain.SectionPhoto: `{
		"type": "object",
		"additionalProperties": false,
		"definitions": {
			"crop": {
				"type": "object",
				"additionalProperties": false,
				"required": ["x", "y", "width", "height"],
				"properties": {
					"x":      {"type": "integer", "minimum": 0},
					"y":      {"type": "integer", "minimum": 0},
					"width":  {"type": "integer", "minimum": 0},
					"height": {"type": "integer", "minimum": 0}
				}
			},
			"photo": {
				"type": "object",
				"additionalProperties": false,
				"required": ["original"],
				"properties": {
					"original": {"type": "string", "minLength": 1},
					"cropped":  {"type": "string"},
					"crop":     {"$ref": "#/definitions/crop"}
				}
			}
		},
		"properties": {
			"photoCount": {"type": "integer", "minimum": 1, "maximum": 4},
			"photos": {
				"type": ["array", "null"],
				"maxItems": 4,
				"items": {"oneOf": [{"type": "null"}, {"$ref": "#/definitions/photo"}]}
			}
		}
	}`,

	domain.SectionPropertyCopy: `{
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"propertyCopy": {"type": "string", "maxLength": 4000}
		}
	}`,

	domain.SectionSaleType: `{
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"saleType":  {"enum": ["auction", "expression", null]},
			"auctionId": {"type": "string", "maxLength": 64},
			"expressionOfInterest": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"closingDate": {"type": "string", "pattern": "^([0-9]{4}-[0-9]{2}-[0-9]{2})?$"},
					"closingTime": {"type": "string", "pattern": "^([0-9]{1,2}:[0-9]{2})?$"},
					"closingAmPm": {"type": "string", "enum": ["", "AM", "PM"]}
				}
			}
		}
	}`,

	domain.SectionAgents: `{
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"agents": {
				"type": ["array", "null"],
				"maxItems": 5,
				"items": {
					"type": "object",
					"additionalProperties": false,
					"required": ["name"],
					"properties": {
						"name":  {"type": "string", "minLength": 1, "maxLength": 80},
						"phone": {"type": "string", "maxLength": 30}
					}
				}
			}
		}
	}`,
}
