package service

// TemplateFilename is the download name for CSVTemplate.
const TemplateFilename = "inventory-template.csv"

const csvTemplate = "ItemNumber,AssetType,Description,Category,Cost,MinimumThreshold,ReorderAmount,CurrentQuantity\n" +
	"HW-001,Hardware,Dell Latitude 7420 Laptop,Laptop,1200.00,10,20,15\n"

// CSVTemplate returns the blank upload template with one example row.
func CSVTemplate() []byte { return []byte(csvTemplate) }
