package host

// SPIConfig configures a spidev device.
type SPIConfig struct {
	Device      string `yaml:"device"`
	Mode        uint8  `yaml:"mode"`
	LSBFirst    bool   `yaml:"lsb-first"`
	BitsPerWord uint8  `yaml:"bits-per-word"`
	SpeedHz     uint32 `yaml:"speed-hz"`
}

// DefaultSPIConfig returns the settings the hub firmware expects:
// mode 1, 8 bits per word, ~8kHz.
func DefaultSPIConfig() SPIConfig {
	return SPIConfig{
		Device:      "/dev/spidev0.0",
		Mode:        1,
		BitsPerWord: 8,
		SpeedHz:     8192,
	}
}
