package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Pipeline  PipelineConfig
	Tools     ToolsConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	GeneratePerHour int
	StatusPerMin    int
}

// PipelineConfig controls the media generation pipeline.
type PipelineConfig struct {
	OutputRoot      string // per-job directories are created under here
	SampleRate      int
	Channels        int
	MinArtifactSize int64 // bytes; audio/video artifacts below this are rejected
	MinSymbolicSize int64 // bytes; floor for symbolic (MIDI) artifacts
	ToolTimeout     int   // seconds per external invocation
	TextureSeconds  int
	MelodySeconds   int
	VideoWidth      int
	VideoHeight     int
	VideoFPS        int
}

// ToolsConfig names the external binaries and resources the pipeline shells
// out to. Every tool is replaceable; the last chain strategies run in-process.
type ToolsConfig struct {
	FFmpeg        string
	FFprobe       string
	Fluidsynth    string
	Python        string
	TTS           string
	SoundFont     string
	MagentaBundle string
}

func Load() (*Config, error) {
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("ratelimit.generate_per_hour", "RATELIMIT_GENERATE_PER_HOUR")
	_ = viper.BindEnv("ratelimit.status_per_min", "RATELIMIT_STATUS_PER_MIN")
	_ = viper.BindEnv("pipeline.output_root", "PIPELINE_OUTPUT_ROOT")
	_ = viper.BindEnv("pipeline.sample_rate", "PIPELINE_SAMPLE_RATE")
	_ = viper.BindEnv("pipeline.channels", "PIPELINE_CHANNELS")
	_ = viper.BindEnv("pipeline.min_artifact_size", "PIPELINE_MIN_ARTIFACT_SIZE")
	_ = viper.BindEnv("pipeline.min_symbolic_size", "PIPELINE_MIN_SYMBOLIC_SIZE")
	_ = viper.BindEnv("pipeline.tool_timeout", "PIPELINE_TOOL_TIMEOUT")
	_ = viper.BindEnv("pipeline.texture_seconds", "PIPELINE_TEXTURE_SECONDS")
	_ = viper.BindEnv("pipeline.melody_seconds", "PIPELINE_MELODY_SECONDS")
	_ = viper.BindEnv("pipeline.video_width", "PIPELINE_VIDEO_WIDTH")
	_ = viper.BindEnv("pipeline.video_height", "PIPELINE_VIDEO_HEIGHT")
	_ = viper.BindEnv("pipeline.video_fps", "PIPELINE_VIDEO_FPS")
	_ = viper.BindEnv("tools.ffmpeg", "TOOL_FFMPEG")
	_ = viper.BindEnv("tools.ffprobe", "TOOL_FFPROBE")
	_ = viper.BindEnv("tools.fluidsynth", "TOOL_FLUIDSYNTH")
	_ = viper.BindEnv("tools.python", "TOOL_PYTHON")
	_ = viper.BindEnv("tools.tts", "TOOL_TTS")
	_ = viper.BindEnv("tools.soundfont", "TOOL_SOUNDFONT")
	_ = viper.BindEnv("tools.magenta_bundle", "TOOL_MAGENTA_BUNDLE")

	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.generate_per_hour", 10)
	viper.SetDefault("ratelimit.status_per_min", 120)

	// Pipeline defaults: 44.1kHz stereo stems, 10KB artifact floor,
	// 720p/30fps visualizer.
	viper.SetDefault("pipeline.output_root", "public/assets")
	viper.SetDefault("pipeline.sample_rate", 44100)
	viper.SetDefault("pipeline.channels", 2)
	viper.SetDefault("pipeline.min_artifact_size", 10000)
	viper.SetDefault("pipeline.min_symbolic_size", 256)
	viper.SetDefault("pipeline.tool_timeout", 120)
	viper.SetDefault("pipeline.texture_seconds", 30)
	viper.SetDefault("pipeline.melody_seconds", 30)
	viper.SetDefault("pipeline.video_width", 1280)
	viper.SetDefault("pipeline.video_height", 720)
	viper.SetDefault("pipeline.video_fps", 30)

	viper.SetDefault("tools.ffmpeg", "ffmpeg")
	viper.SetDefault("tools.ffprobe", "ffprobe")
	viper.SetDefault("tools.fluidsynth", "fluidsynth")
	viper.SetDefault("tools.python", "python3")
	viper.SetDefault("tools.tts", "tts")
	viper.SetDefault("tools.soundfont", "/usr/local/share/soundfonts/GeneralUser.sf2")
	viper.SetDefault("tools.magenta_bundle", "/usr/local/share/magenta_models/attention_rnn.mag")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			GeneratePerHour: viper.GetInt("ratelimit.generate_per_hour"),
			StatusPerMin:    viper.GetInt("ratelimit.status_per_min"),
		},
		Pipeline: PipelineConfig{
			OutputRoot:      viper.GetString("pipeline.output_root"),
			SampleRate:      viper.GetInt("pipeline.sample_rate"),
			Channels:        viper.GetInt("pipeline.channels"),
			MinArtifactSize: viper.GetInt64("pipeline.min_artifact_size"),
			MinSymbolicSize: viper.GetInt64("pipeline.min_symbolic_size"),
			ToolTimeout:     viper.GetInt("pipeline.tool_timeout"),
			TextureSeconds:  viper.GetInt("pipeline.texture_seconds"),
			MelodySeconds:   viper.GetInt("pipeline.melody_seconds"),
			VideoWidth:      viper.GetInt("pipeline.video_width"),
			VideoHeight:     viper.GetInt("pipeline.video_height"),
			VideoFPS:        viper.GetInt("pipeline.video_fps"),
		},
		Tools: ToolsConfig{
			FFmpeg:        viper.GetString("tools.ffmpeg"),
			FFprobe:       viper.GetString("tools.ffprobe"),
			Fluidsynth:    viper.GetString("tools.fluidsynth"),
			Python:        viper.GetString("tools.python"),
			TTS:           viper.GetString("tools.tts"),
			SoundFont:     viper.GetString("tools.soundfont"),
			MagentaBundle: viper.GetString("tools.magenta_bundle"),
		},
	}

	return cfg, nil
}
