package model

// ClaimType categorizes the nature of a verifiable assertion
type ClaimType string

const (
	ClaimImport            ClaimType = "import"             // Imported module/package
	ClaimFunctionCall      ClaimType = "function_call"      // Function exists and is called
	ClaimTypeReference     ClaimType = "type_reference"     // Type/class/interface exists
	ClaimAPIEndpoint       ClaimType = "api_endpoint"       // HTTP route being hit
	ClaimEnvVariable       ClaimType = "env_variable"       // Environment variable consumed
	ClaimFileReference     ClaimType = "file_reference"     // File path referenced
	ClaimPackageDependency ClaimType = "package_dependency" // Declared dependency
)

// AllClaimTypes lists every claim type the pipeline understands
var AllClaimTypes = []ClaimType{
	ClaimImport,
	ClaimFunctionCall,
	ClaimTypeReference,
	ClaimAPIEndpoint,
	ClaimEnvVariable,
	ClaimFileReference,
	ClaimPackageDependency,
}

// Claim represents a checkable factual assertion extracted from content.
// Claims are immutable once produced and owned by the request that created them.
type Claim struct {
	ID            string    `json:"id"`
	Type          ClaimType `json:"type"`
	Value         string    `json:"value"`               // The asserted value (module name, path, symbol, ...)
	Location      string    `json:"location,omitempty"`  // Where in the content it appeared (e.g. "line 12")
	Heuristic     string    `json:"heuristic,omitempty"` // Which extraction rule matched
	RawConfidence float64   `json:"raw_confidence"`      // Extractor-reported confidence, uncalibrated
}
