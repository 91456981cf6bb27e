package excel

// ReaderConfig holds the parser limits
type ReaderConfig struct {
	// MaxRows caps the number of non-blank data rows; 0 disables the cap
	MaxRows int `json:"max_rows"`
}

// DefaultReaderConfig returns the defaults used when no configuration is given
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{MaxRows: 5000}
}
