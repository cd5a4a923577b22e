package payment

// Config holds payment provider configuration
type Config struct {
	Type string // "mock"
	Name string // label carried in settlement references
}
