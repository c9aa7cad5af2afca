// Package config provides board configuration management for Element Capture.
//
// The config package handles:
//   - Loading board configurations from JSON files
//   - Configuration validation via engine.ValidateGameConfig
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Board configurations are stored as JSON files in the configs directory.
// Each configuration defines:
//   - Board dimensions (rows, cols)
//   - How elements are placed: "bands" by column or seeded "random"
//   - How deep each player's home band is (owner_rows)
//   - Optionally an explicit layout (elements: E/F/W, owners: 0/1/2)
//   - Which player moves first
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration
//	boardConfig, err := manager.LoadConfig("skirmish")
//
//	// Get default configuration ("classic" when present)
//	defaultConfig := manager.GetDefault()
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
package config
