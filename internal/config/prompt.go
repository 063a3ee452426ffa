package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/jmagar/tunegrab/internal/helpers"
	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/ui"
)

// Prompter reads line answers from an input stream. Share one Prompter per
// stream so buffered input is not lost between questions.
type Prompter struct {
	r *bufio.Reader
	w io.Writer
}

// NewPrompter wraps in and out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if p, ok := in.(*bufio.Reader); ok {
		return &Prompter{r: p, w: out}
	}
	return &Prompter{r: bufio.NewReader(in), w: out}
}

// Out returns the writer prompts are written to.
func (p *Prompter) Out() io.Writer {
	return p.w
}

// Ask prints question and returns the trimmed answer. io.EOF is returned
// once the input is exhausted and nothing was typed.
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.w, question)
	line, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return strings.TrimSpace(line), err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question; only "y" and "yes" count as yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Ask(question)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// Println writes a line to the prompt output.
func (p *Prompter) Println(a ...any) {
	fmt.Fprintln(p.w, a...)
}

func (p *Prompter) arrow(question string) string {
	return fmt.Sprintf("%s%s%s %s", ui.ColorCyan, ui.BulletArrow, ui.ColorReset, question)
}

// PromptPreferences asks for bitrate, format, lyrics and output directory,
// looping on invalid answers, and creates the output directory.
func PromptPreferences(cfg *model.Config, p *Prompter) error {
	for {
		answer, err := p.Ask("What bitrate would you like (8k-320k, default:- 320k): ")
		if err != nil {
			return err
		}
		answer = strings.ToLower(answer)
		if answer == "" {
			cfg.Bitrate = model.DefaultBitrate
			break
		}
		if slices.Contains(model.ValidBitrates, answer) {
			cfg.Bitrate = answer
			break
		}
		p.Println("Invalid bitrate. Please choose from the specified values.")
	}

	for {
		answer, err := p.Ask("What format do you wish to download in:(mp3, flac, ogg, opus, m4a, wav, default mp3): ")
		if err != nil {
			return err
		}
		answer = strings.ToLower(answer)
		if answer == "" {
			cfg.Format = model.DefaultFormat
			break
		}
		if slices.Contains(model.ValidFormats, answer) {
			cfg.Format = answer
			break
		}
		p.Println("Invalid format. Please choose from the specified formats.")
	}

	if err := promptLyrics(cfg, p); err != nil {
		return err
	}

	answer, err := p.Ask("Enter output directory (default: Albums): ")
	if err != nil {
		return err
	}
	if answer == "" {
		answer = model.DefaultOutPath
	}
	if err := helpers.ValidatePath(answer); err != nil {
		return err
	}
	cfg.OutPath = answer
	if err := helpers.MakeDirs(cfg.OutPath); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// promptLyrics asks whether to fetch lyrics and from which provider. An
// unknown provider falls back to genius.
func promptLyrics(cfg *model.Config, p *Prompter) error {
	for {
		answer, err := p.Ask("Would you like lyrics with the song (y/n, default: n): ")
		if err != nil {
			return err
		}
		switch strings.ToLower(answer) {
		case "", "n", "no":
			cfg.Lyrics = ""
			return nil
		case "y", "yes":
			provider, err := p.Ask("Which lyrics provider (" + strings.Join(model.ValidLyricsProviders, ", ") + ", default: genius): ")
			if err != nil {
				return err
			}
			provider = strings.ToLower(provider)
			switch {
			case provider == "":
				cfg.Lyrics = model.DefaultLyrics
			case slices.Contains(model.ValidLyricsProviders, provider):
				cfg.Lyrics = provider
			default:
				ui.PrintWarning("Invalid provider given. Using genius lyrics.")
				cfg.Lyrics = model.DefaultLyrics
			}
			return nil
		}
		p.Println("Please enter 'y' or 'n'.")
	}
}

// PromptForConfig runs the interactive first-time setup flow and writes
// the answers to path (config.json when empty).
func PromptForConfig(p *Prompter, path string) (*model.Config, error) {
	ui.PrintHeader("First Time Setup")
	ui.PrintInfo("No config file found. Let's create one!")
	p.Println()

	cfg := Default()

	outPath, err := p.Ask(p.arrow("Enter download directory (default: Albums): "))
	if err != nil {
		return nil, err
	}
	if outPath != "" {
		cfg.OutPath = outPath
	}

	p.Println()
	ui.PrintSection("Audio Quality")
	ui.PrintList([]string{
		"Bitrates: auto, disable, 8k ... 320k",
		"Formats: " + strings.Join(model.ValidFormats, ", "),
	}, ui.ColorYellow)
	bitrate, err := p.Ask(p.arrow("Enter bitrate (default: 320k): "))
	if err != nil {
		return nil, err
	}
	if bitrate != "" {
		bitrate = strings.ToLower(bitrate)
		if !slices.Contains(model.ValidBitrates, bitrate) {
			return nil, fmt.Errorf("invalid bitrate %q", bitrate)
		}
		cfg.Bitrate = bitrate
	}
	format, err := p.Ask(p.arrow("Enter format (default: mp3): "))
	if err != nil {
		return nil, err
	}
	if format != "" {
		format = strings.ToLower(format)
		if !slices.Contains(model.ValidFormats, format) {
			return nil, fmt.Errorf("invalid format %q", format)
		}
		cfg.Format = format
	}

	retries, err := p.Ask(p.arrow(fmt.Sprintf("Attempts per link (default: %d): ", model.DefaultMaxRetries)))
	if err != nil {
		return nil, err
	}
	if retries != "" {
		n, convErr := strconv.Atoi(retries)
		if convErr != nil || n < 1 || n > 20 {
			return nil, errors.New("attempts must be between 1 and 20")
		}
		cfg.MaxRetries = n
	}

	p.Println()
	cfg.AutoInstall, err = confirmDefault(p, p.arrow("Install spotdl and yt-dlp automatically when missing? [Y/n] (default: Y): "), true)
	if err != nil {
		return nil, err
	}
	cfg.UseFfmpegEnvVar, err = confirmDefault(p, p.arrow("Use FFmpeg from system PATH? [y/N] (default: N): "), false)
	if err != nil {
		return nil, err
	}

	cfg.RcloneEnabled, err = confirmDefault(p, p.arrow("Upload to remote using rclone? [y/N] (default: N): "), false)
	if err != nil {
		return nil, err
	}
	if cfg.RcloneEnabled {
		if cfg.RcloneRemote, err = p.Ask("Enter rclone remote name (e.g., gdrive): "); err != nil {
			return nil, err
		}
		if cfg.RcloneRemote == "" {
			return nil, errors.New("rclone remote name is required")
		}
		if cfg.RclonePath, err = p.Ask("Enter remote path (e.g., /media/music): "); err != nil {
			return nil, err
		}
		if cfg.RclonePath == "" {
			return nil, errors.New("rclone remote path is required")
		}
		transfers, err := p.Ask("Enter number of parallel transfers (default: 4): ")
		if err != nil {
			return nil, err
		}
		cfg.RcloneTransfers = model.DefaultRcloneXfers
		if transfers != "" {
			cfg.RcloneTransfers, err = strconv.Atoi(transfers)
			if err != nil || cfg.RcloneTransfers < 1 {
				return nil, errors.New("transfers must be a positive integer")
			}
		}
		if cfg.DeleteAfterUpload, err = confirmDefault(p, "Delete local files after upload? [Y/n] (default: Y): ", true); err != nil {
			return nil, err
		}
	}

	if path == "" {
		path = "config.json"
	}
	if err := writeConfigTo(cfg, path); err != nil {
		return nil, err
	}

	p.Println()
	ui.PrintSuccess(path + " created successfully!")
	ui.PrintInfo("You can edit it later to change these settings.")
	p.Println()
	return cfg, nil
}

func confirmDefault(p *Prompter, question string, def bool) (bool, error) {
	answer, err := p.Ask(question)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
