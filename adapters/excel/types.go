package excel

// RawRowData is one data row keyed by canonical column name
type RawRowData map[string]string

// SheetData is a parsed worksheet or CSV file
type SheetData struct {
	Headers []string     // canonical column names, in file order
	Rows    []RawRowData // data rows
}

// Canonical column names
const (
	ColID       = "id"
	ColName     = "name"
	ColCategory = "category"
	ColPrice    = "price"
	ColQuantity = "quantity"
	ColUnit     = "unit"
	ColRegion   = "region"
)

// Columns lists the canonical columns in export order
var Columns = []string{ColID, ColName, ColCategory, ColPrice, ColQuantity, ColUnit, ColRegion}

// headerAliases maps lowercased header text to canonical column names
var headerAliases = map[string]string{
	"id":           ColID,
	"item_id":      ColID,
	"№":            ColID,
	"code":         ColID,
	"name":         ColName,
	"description":  ColName,
	"наименование": ColName,
	"работа":       ColName,
	"category":     ColCategory,
	"категория":    ColCategory,
	"раздел":       ColCategory,
	"price":        ColPrice,
	"unit_price":   ColPrice,
	"цена":         ColPrice,
	"quantity":     ColQuantity,
	"qty":          ColQuantity,
	"количество":   ColQuantity,
	"кол-во":       ColQuantity,
	"unit":         ColUnit,
	"ед":           ColUnit,
	"ед.":          ColUnit,
	"ед. изм.":     ColUnit,
	"region":       ColRegion,
	"регион":       ColRegion,
}
