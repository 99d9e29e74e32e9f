package config

const (
	defaultStateDir  = "~/.local/share/easel"
	defaultLogDir    = "~/.local/share/easel/logs"
	defaultAPIBind   = "127.0.0.1:7488"
	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultBackgroundColor = "black"
	defaultIntervalSeconds = 8
	defaultImageExtensions = ".jpg,.jpeg,.png,.gif,.bmp,.webp"
	defaultImagesFolder    = "~/.local/share/easel/images"

	// MinInkyIntervalSeconds is the slowest safe refresh for e-ink panels.
	// Inky displays take several seconds per redraw and degrade when driven
	// faster.
	MinInkyIntervalSeconds = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
