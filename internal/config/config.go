package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	APIURL     string        `validate:"required,url"`
	APIKey     string        `validate:"required"`
	TerminalID string        `validate:"required"`
	APITimeout time.Duration `validate:"gt=0"`

	ScreenWidth  int `validate:"gt=0"`
	ScreenHeight int `validate:"gt=0"`
	FrameRate    int `validate:"gt=0,lte=120"`

	FramebufferDevice string
	InputDevices      []string
	TouchMaxX         int
	TouchMaxY         int

	CameraCommand        string        `validate:"required"`
	CameraWidth          int           `validate:"gt=0"`
	CameraHeight         int           `validate:"gt=0"`
	CameraStartupTimeout time.Duration `validate:"gt=0"`
	CameraChunkSize      int           `validate:"gt=0"`

	FingerprintPort          string `validate:"required"`
	FingerprintBaudRate      int    `validate:"gt=0"`
	FingerprintPlaceholderID string `validate:"required"`

	TimeoutVerification time.Duration `validate:"gt=0"`
	TimeoutFacial       time.Duration `validate:"gt=0"`
	TimeoutResult       time.Duration `validate:"gt=0"`
	FaceDetectDelay     time.Duration
	ResultHoldDelay     time.Duration
	EnrollStepDelays    []time.Duration

	DataDirectory string        `validate:"required"`
	DatabasePath  string        `validate:"required"`
	LogDirectory  string        `validate:"required"`
	SyncInterval  time.Duration `validate:"gt=0"`
	SyncRate      float64       `validate:"gt=0"`

	MonitorPort     int `validate:"gte=0,lte=65535"`
	MonitorInterval int `validate:"gt=0"` // every Nth tick is published to the monitor
}

// Load reads an optional .env file and builds the Config from the environment.
func Load() *Config {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", filepath.Join(".", "data"))

	return &Config{
		APIURL:     getEnv("API_URL", "http://servidor-central:8000"),
		APIKey:     getEnv("API_KEY", "mi_api_key_segura_001"),
		TerminalID: getEnv("TERMINAL_ID", "TERMINAL_001"),
		APITimeout: getEnvAsDuration("API_TIMEOUT", 10*time.Second),

		ScreenWidth:  getEnvAsInt("SCREEN_WIDTH", 320),
		ScreenHeight: getEnvAsInt("SCREEN_HEIGHT", 240),
		FrameRate:    getEnvAsInt("FRAME_RATE", 30),

		FramebufferDevice: getEnv("FRAMEBUFFER_DEVICE", "/dev/fb0"),
		InputDevices:      getEnvAsList("INPUT_DEVICES", []string{"/dev/input/event0"}),
		TouchMaxX:         getEnvAsInt("TOUCH_MAX_X", 4095),
		TouchMaxY:         getEnvAsInt("TOUCH_MAX_Y", 4095),

		CameraCommand:        getEnv("CAMERA_COMMAND", "libcamera-vid"),
		CameraWidth:          getEnvAsInt("CAMERA_WIDTH", 320),
		CameraHeight:         getEnvAsInt("CAMERA_HEIGHT", 240),
		CameraStartupTimeout: getEnvAsDuration("CAMERA_STARTUP_TIMEOUT", 5*time.Second),
		CameraChunkSize:      getEnvAsInt("CAMERA_CHUNK_SIZE", 4096),

		FingerprintPort:          getEnv("FINGERPRINT_PORT", "/dev/ttyS0"),
		FingerprintBaudRate:      getEnvAsInt("FINGERPRINT_BAUDRATE", 57600),
		FingerprintPlaceholderID: getEnv("FINGERPRINT_PLACEHOLDER_ID", "123456789"),

		TimeoutVerification: getEnvAsDuration("TIMEOUT_VERIFICATION", 30*time.Second),
		TimeoutFacial:       getEnvAsDuration("TIMEOUT_FACIAL", 20*time.Second),
		TimeoutResult:       getEnvAsDuration("TIMEOUT_RESULT", 5*time.Second),
		FaceDetectDelay:     getEnvAsDuration("FACE_DETECT_DELAY", 2*time.Second),
		ResultHoldDelay:     getEnvAsDuration("RESULT_HOLD_DELAY", 1500*time.Millisecond),
		EnrollStepDelays: []time.Duration{
			getEnvAsDuration("ENROLL_PLACE_DELAY", 2*time.Second),
			getEnvAsDuration("ENROLL_CAPTURE_DELAY", 3*time.Second),
			getEnvAsDuration("ENROLL_PROCESS_DELAY", 1*time.Second),
		},

		DataDirectory: dataDir,
		DatabasePath:  getEnv("DB_PATH", filepath.Join(dataDir, "records.db")),
		LogDirectory:  getEnv("LOG_DIR", filepath.Join(dataDir, "logs")),
		SyncInterval:  getEnvAsDuration("SYNC_INTERVAL", 60*time.Second),
		SyncRate:      getEnvAsFloat("SYNC_RATE", 2),

		MonitorPort:     getEnvAsInt("MONITOR_PORT", 0),
		MonitorInterval: getEnvAsInt("MONITOR_INTERVAL", 15),
	}
}

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("1500ms") or plain seconds ("30").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
