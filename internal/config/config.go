package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/ui"
)

// LoadedConfigPath tracks which config file was loaded so WriteConfig can save to the same location.
var LoadedConfigPath string

// ErrFfmpegNotFound is returned when no ffmpeg binary was configured or found.
var ErrFfmpegNotFound = errors.New("ffmpeg binary not found (checked ./ffmpeg and PATH)")

// ErrConfigNotFound is returned when an explicitly requested config file is missing.
var ErrConfigNotFound = errors.New("config file not found")

// SearchPaths returns the config locations checked in order.
func SearchPaths() []string {
	paths := []string{"config.json", "config.yaml", "config.yml"}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return paths
	}
	return append(paths,
		filepath.Join(homeDir, ".tunegrab", "config.json"),
		filepath.Join(homeDir, ".tunegrab", "config.yaml"),
		filepath.Join(homeDir, ".config", "tunegrab", "config.json"),
		filepath.Join(homeDir, ".config", "tunegrab", "config.yaml"),
	)
}

// Default returns a config holding every default value.
func Default() *model.Config {
	return &model.Config{
		OutPath:           model.DefaultOutPath,
		LinksFile:         model.DefaultLinksFile,
		Bitrate:           model.DefaultBitrate,
		Format:            model.DefaultFormat,
		MaxRetries:        model.DefaultMaxRetries,
		RetryDelay:        model.DefaultRetryDelay.String(),
		MaxParallel:       model.DefaultMaxParallel,
		SpotdlBin:         model.DefaultSpotdlBin,
		AutoInstall:       true,
		WritePlaylistFile: true,
		LogDir:            model.DefaultLogDir,
		WatchDebounce:     model.DefaultWatchDebounce.String(),
		RetryFailed:       true,
	}
}

// ReadConfig loads the config at path, or the first file found in
// SearchPaths when path is empty. A missing config is not an error: the
// defaults are returned together with an empty path.
func ReadConfig(path string) (*model.Config, string, error) {
	candidates := SearchPaths()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		candidates = []string{path}
	}

	cfg := Default()
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		if err := decode(candidate, data, cfg); err != nil {
			return nil, "", fmt.Errorf("failed to parse config at %s: %w", candidate, err)
		}
		LoadedConfigPath = candidate
		checkPermissions(candidate)
		ApplyDefaults(cfg)
		return cfg, candidate, nil
	}

	slog.Debug("no config file found, using defaults")
	return cfg, "", nil
}

func decode(path string, data []byte, cfg *model.Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func checkPermissions(configPath string) {
	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return
	}
	mode := fileInfo.Mode()
	if mode.Perm()&0077 == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "%s WARNING: Config file has insecure permissions (%04o)\n", ui.ColorYellow+ui.SymbolWarning+ui.ColorReset, mode.Perm())
	fmt.Fprintf(os.Stderr, "   File: %s\n", configPath)
	fmt.Fprintf(os.Stderr, "   Risk: Config may contain tokens and should only be readable by you\n")
	if runtime.GOOS != "windows" {
		if chmodErr := os.Chmod(configPath, 0600); chmodErr != nil {
			fmt.Fprintf(os.Stderr, "   Auto-fix failed: %v\n", chmodErr)
			fmt.Fprintf(os.Stderr, "   Fix manually: chmod 600 %s\n\n", configPath)
		} else {
			fmt.Fprintf(os.Stderr, "   Auto-fix applied: chmod 600 %s\n\n", configPath)
		}
	} else {
		fmt.Fprintf(os.Stderr, "   Windows ACLs in use; skipping chmod auto-fix\n\n")
	}
}

// ApplyDefaults fills empty fields and normalises case and whitespace.
func ApplyDefaults(cfg *model.Config) {
	cfg.OutPath = strings.TrimSpace(cfg.OutPath)
	cfg.StagingPath = strings.TrimSpace(cfg.StagingPath)
	cfg.RclonePath = strings.TrimSpace(cfg.RclonePath)
	cfg.Bitrate = strings.ToLower(strings.TrimSpace(cfg.Bitrate))
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	cfg.Lyrics = strings.ToLower(strings.TrimSpace(cfg.Lyrics))

	if cfg.OutPath == "" {
		cfg.OutPath = model.DefaultOutPath
	}
	if cfg.LinksFile == "" {
		cfg.LinksFile = model.DefaultLinksFile
	}
	if cfg.Bitrate == "" {
		cfg.Bitrate = model.DefaultBitrate
	}
	if cfg.Format == "" {
		cfg.Format = model.DefaultFormat
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = model.DefaultMaxRetries
	}
	if cfg.RetryDelay == "" {
		cfg.RetryDelay = model.DefaultRetryDelay.String()
	}
	if cfg.MaxParallel == 0 {
		cfg.MaxParallel = model.DefaultMaxParallel
	}
	if cfg.SpotdlBin == "" {
		cfg.SpotdlBin = model.DefaultSpotdlBin
	}
	if cfg.LogDir == "" {
		cfg.LogDir = model.DefaultLogDir
	}
	if cfg.WatchDebounce == "" {
		cfg.WatchDebounce = model.DefaultWatchDebounce.String()
	}
	if cfg.RcloneEnabled && cfg.RcloneTransfers == 0 {
		cfg.RcloneTransfers = model.DefaultRcloneXfers
	}
}

// ParseDuration accepts Go durations ("20s", "1m30s") and bare seconds ("20").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("bitrate", func(fl validator.FieldLevel) bool {
		return slices.Contains(model.ValidBitrates, strings.ToLower(fl.Field().String()))
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := ParseDuration(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field ranges and resolves the duration fields.
func Validate(cfg *model.Config) error {
	if err := newValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config validation failed: invalid %s %q (%s)", fe.Field(), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return fmt.Errorf("config validation failed: %w", err)
	}

	var err error
	if cfg.RetryDelayDur, err = ParseDuration(cfg.RetryDelay); err != nil {
		return fmt.Errorf("invalid retryDelay: %w", err)
	}
	if cfg.DownloadTimeoutDur, err = ParseDuration(cfg.DownloadTimeout); err != nil {
		return fmt.Errorf("invalid downloadTimeout: %w", err)
	}
	if cfg.WatchDebounceDur, err = ParseDuration(cfg.WatchDebounce); err != nil {
		return fmt.Errorf("invalid watchDebounce: %w", err)
	}
	if cfg.WatchDebounceDur == 0 {
		cfg.WatchDebounceDur = model.DefaultWatchDebounce
	}
	return nil
}

// ParseArgs parses CLI arguments using go-arg.
func ParseArgs() *model.Args {
	var args model.Args
	arg.MustParse(&args)
	return &args
}

// ParseCfg reads config, applies CLI overrides and validates the result.
func ParseCfg(args *model.Args) (*model.Config, error) {
	cfg, _, err := ReadConfig(args.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyArgs(cfg, args)
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	ffmpegName, err := ResolveFfmpegBinary(cfg)
	switch {
	case errors.Is(err, ErrFfmpegNotFound):
		slog.Debug("ffmpeg not found, leaving resolution to the backends")
		cfg.FfmpegNameStr = ""
	case err != nil:
		return nil, err
	default:
		cfg.FfmpegNameStr = ffmpegName
	}

	cfg.Urls = NormalizeCliAliases(args.Urls)
	return cfg, nil
}

func applyArgs(cfg *model.Config, args *model.Args) {
	if args.OutPath != "" {
		cfg.OutPath = args.OutPath
	}
	if args.Bitrate != "" {
		cfg.Bitrate = args.Bitrate
	}
	if args.Format != "" {
		cfg.Format = args.Format
	}
	if args.Retries != -1 {
		cfg.MaxRetries = args.Retries
	}
	if args.RetryDelay != "" {
		cfg.RetryDelay = args.RetryDelay
	}
	if args.Parallel != -1 {
		cfg.MaxParallel = args.Parallel
	}
	if args.Lyrics != "" {
		cfg.Lyrics = args.Lyrics
	}
	if args.Staging != "" {
		cfg.StagingPath = args.Staging
	}
	if args.Zip {
		cfg.ZipAlbums = true
	}
	if args.NoInstall {
		cfg.AutoInstall = false
	}
	cfg.RetryFailed = !args.SkipFailed
	cfg.Verbose = args.Verbose
}

// ResolveFfmpegBinary locates the ffmpeg binary based on config settings.
func ResolveFfmpegBinary(cfg *model.Config) (string, error) {
	preferred := strings.TrimSpace(cfg.FfmpegNameStr)

	// Respect explicit non-default binary names/paths from config.
	if preferred != "" && preferred != "./ffmpeg" && preferred != "ffmpeg" {
		if resolved, err := exec.LookPath(preferred); err == nil {
			return resolved, nil
		}
		if info, err := os.Stat(preferred); err == nil && !info.IsDir() {
			return preferred, nil
		}
		return "", fmt.Errorf("configured ffmpeg binary not found: %s", preferred)
	}

	if cfg.UseFfmpegEnvVar || preferred == "ffmpeg" {
		if resolved, err := exec.LookPath("ffmpeg"); err == nil {
			return resolved, nil
		}
		return "", errors.New("ffmpeg not found in PATH (install ffmpeg or set ffmpegNameStr to an absolute/local binary path)")
	}

	candidates := []string{"./ffmpeg"}
	if exePath, err := os.Executable(); err == nil {
		exeLocal := filepath.Join(filepath.Dir(exePath), "ffmpeg")
		if exeLocal != "./ffmpeg" {
			candidates = append(candidates, exeLocal)
		}
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	if resolved, err := exec.LookPath("ffmpeg"); err == nil {
		return resolved, nil
	}
	return "", ErrFfmpegNotFound
}

// NormalizeCliAliases maps short command names to their canonical form.
func NormalizeCliAliases(urls []string) []string {
	if len(urls) == 0 {
		return urls
	}

	switch strings.ToLower(urls[0]) {
	case "dl", "get", "download":
		// tunegrab dl <links...> -> tunegrab <links...>
		return urls[1:]
	case "txt", "file":
		return append([]string{"file"}, urls[1:]...)
	case "find", "search":
		return append([]string{"search"}, urls[1:]...)
	case "liked", "saved":
		return []string{"saved"}
	case "playlists":
		return []string{"playlists"}
	case "albums":
		return []string{"albums"}
	case "install", "check":
		return []string{"check"}
	}

	return urls
}

// WriteConfig writes the config to the same file that was loaded by ReadConfig.
func WriteConfig(cfg *model.Config) error {
	targetPath := LoadedConfigPath
	if targetPath == "" {
		targetPath = "config.json"
	}
	return writeConfigTo(cfg, targetPath)
}

func writeConfigTo(cfg *model.Config, targetPath string) error {
	var (
		configData []byte
		err        error
	)
	switch strings.ToLower(filepath.Ext(targetPath)) {
	case ".yaml", ".yml":
		configData, err = yaml.Marshal(cfg)
	default:
		configData, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(targetPath)
	if dir != "." {
		if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
			return fmt.Errorf("failed to create config directory %s: %w", dir, mkErr)
		}
	}

	if err := os.WriteFile(targetPath, configData, 0600); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", targetPath, err)
	}
	LoadedConfigPath = targetPath
	return nil
}
