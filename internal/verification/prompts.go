package verification

import (
	"fmt"

	"github.com/vanshika/ecocycle/backend/internal/domain"
)

type categoryPrompt struct {
	noun       string
	typeHint   string
	amountHint string
	typeKey    string
	amountKey  string
}

var categoryPrompts = map[domain.Category]categoryPrompt{
	domain.CategoryClothes: {
		noun: "clothing", typeHint: "cotton, polyester, wool, silk", amountHint: "kg or pieces",
		typeKey: "clothTypeMatch", amountKey: "quantityMatch",
	},
	domain.CategoryAppliances: {
		noun: "household appliance", typeHint: "fridge, microwave, washing machine", amountHint: "working, repairable, scrap",
		typeKey: "applianceTypeMatch", amountKey: "conditionMatch",
	},
	domain.CategoryElectronics: {
		noun: "electronic device", typeHint: "phone, laptop, monitor", amountHint: "number of units",
		typeKey: "deviceTypeMatch", amountKey: "quantityMatch",
	},
	domain.CategoryBooksPaper: {
		noun: "books or paper", typeHint: "books, newspaper, cardboard", amountHint: "kg",
		typeKey: "materialMatch", amountKey: "weightMatch",
	},
	domain.CategoryFurniture: {
		noun: "furniture", typeHint: "chair, table, sofa", amountHint: "good, worn, broken",
		typeKey: "furnitureTypeMatch", amountKey: "conditionMatch",
	},
}

func promptFor(category domain.Category) categoryPrompt {
	if p, ok := categoryPrompts[category]; ok {
		return p
	}
	return categoryPrompts[domain.CategoryClothes]
}

// AnalysisPrompt asks the model to describe a reported item.
func AnalysisPrompt(category domain.Category) string {
	p := promptFor(category)
	return fmt.Sprintf(`Analyze this image of %s and provide:
1. The type of item (e.g., %s)
2. An estimate of the quantity or amount (%s)
3. An estimated monetary value in the format "Approximately 1000-2000 KSH"
4. Your confidence level in this assessment
Respond in JSON format like this:
{
  "itemType": "type of item",
  "quantity": "estimated quantity with unit",
  "estimatedValue": "Approximately 1000-2000 KSH",
  "confidence": confidence level as a number between 0 and 1
}`, p.noun, p.typeHint, p.amountHint)
}

// VerificationPrompt asks the model to compare collection evidence with the report.
func VerificationPrompt(report domain.Report) string {
	p := promptFor(report.Category)
	return fmt.Sprintf(`You are an expert in recycling %s. Analyze this image and verify:
1. Does the item match the reported type: %s?
2. Does it match the reported amount or condition: %s?
3. Your confidence level in this assessment.
Respond in JSON format like this:
{
  "%s": true/false,
  "%s": true/false,
  "confidence": confidence level as a number between 0 and 1
}`, p.noun, report.ItemType, report.Amount, p.typeKey, p.amountKey)
}
