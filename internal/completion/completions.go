package completion

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmagar/tunegrab/internal/ui"
)

// Commands lists the top-level subcommands offered for completion.
var Commands = []string{
	"file", "search", "saved", "playlists", "albums", "inspect", "check",
	"backend-help", "info", "watch", "config", "completion", "help",
}

// Command handles the `tunegrab completion <shell>` command.
func Command(w io.Writer, args []string) error {
	if len(args) < 2 {
		ui.PrintInfo("Usage: tunegrab completion <shell>")
		fmt.Fprintln(w, "Supported shells: bash, zsh, fish, powershell")
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Installation examples:")
		fmt.Fprintln(w, "  Bash:       tunegrab completion bash > /etc/bash_completion.d/tunegrab")
		fmt.Fprintln(w, "  Zsh:        tunegrab completion zsh > ~/.zsh/completion/_tunegrab")
		fmt.Fprintln(w, "  Fish:       tunegrab completion fish > ~/.config/fish/completions/tunegrab.fish")
		fmt.Fprintln(w, "  PowerShell: tunegrab completion powershell >> $PROFILE")
		return nil
	}

	shell := strings.ToLower(args[1])
	switch shell {
	case "bash":
		fmt.Fprint(w, BashCompletion)
	case "zsh":
		fmt.Fprint(w, ZshCompletion)
	case "fish":
		fmt.Fprint(w, FishCompletion)
	case "powershell", "pwsh":
		fmt.Fprint(w, PowershellCompletion)
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", shell)
	}
	return nil
}

// BashCompletion is the bash completion script.
const BashCompletion = `# tunegrab bash completion script
# Installation: tunegrab completion bash > /etc/bash_completion.d/tunegrab

_tunegrab_completion() {
    local cur prev words cword
    _init_completion || return

    local commands="file search saved playlists albums inspect check backend-help info watch config completion help"
    local flags="-c --config -o --out -b --bitrate -f --format --lyrics -r --retries --retry-delay -j --parallel --staging --zip --no-install --skip-failed -v --verbose --help"

    case "$prev" in
        -b|--bitrate)
            COMPREPLY=($(compgen -W "auto disable 8k 16k 24k 32k 40k 48k 64k 80k 96k 112k 128k 160k 192k 224k 256k 320k" -- "$cur"))
            return
            ;;
        -f|--format)
            COMPREPLY=($(compgen -W "mp3 flac ogg opus m4a wav" -- "$cur"))
            return
            ;;
        --lyrics)
            COMPREPLY=($(compgen -W "genius musixmatch azlyrics synced" -- "$cur"))
            return
            ;;
        -o|--out|--staging)
            COMPREPLY=($(compgen -d -- "$cur"))
            return
            ;;
        -c|--config)
            COMPREPLY=($(compgen -f -X '!*.@(json|yaml|yml)' -- "$cur"))
            return
            ;;
    esac

    case "${words[1]}" in
        file|watch)
            COMPREPLY=($(compgen -f -X '!*.@(txt|m3u|m3u8)' -- "$cur"))
            return
            ;;
        config)
            COMPREPLY=($(compgen -W "init show" -- "$cur"))
            return
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish powershell" -- "$cur"))
            return
            ;;
    esac

    if [[ "$cur" == -* ]]; then
        COMPREPLY=($(compgen -W "$flags" -- "$cur"))
    elif [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
    fi
}

complete -F _tunegrab_completion tunegrab
`

// ZshCompletion is the zsh completion script.
const ZshCompletion = `#compdef tunegrab
# tunegrab zsh completion script
# Installation: tunegrab completion zsh > ~/.zsh/completion/_tunegrab

_tunegrab() {
    local -a commands
    commands=(
        'file:Download every pending link of a link file'
        'search:Search for a song and download it'
        'saved:Download your liked songs'
        'playlists:Download all your playlists'
        'albums:Download your saved albums'
        'inspect:Preview the tracks behind a link'
        'check:Check and install spotdl, yt-dlp and ffmpeg'
        'backend-help:Show the spotdl help text'
        'info:Show program information'
        'watch:Re-run a link file whenever it changes'
        'config:Create or show the configuration'
        'completion:Generate shell completion scripts'
        'help:Show help'
    )

    _arguments -C \
        '(-c --config)'{-c,--config}'[Config file]:file:_files -g "*.(json|yaml|yml)"' \
        '(-o --out)'{-o,--out}'[Output directory]:dir:_directories' \
        '(-b --bitrate)'{-b,--bitrate}'[Audio bitrate]:bitrate:(auto disable 8k 16k 24k 32k 40k 48k 64k 80k 96k 112k 128k 160k 192k 224k 256k 320k)' \
        '(-f --format)'{-f,--format}'[Audio format]:format:(mp3 flac ogg opus m4a wav)' \
        '--lyrics[Lyrics provider]:provider:(genius musixmatch azlyrics synced)' \
        '(-r --retries)'{-r,--retries}'[Attempts per link]:count:' \
        '--retry-delay[Delay between attempts]:delay:' \
        '(-j --parallel)'{-j,--parallel}'[Concurrent links]:count:' \
        '--staging[Staging directory]:dir:_directories' \
        '--zip[Zip album folders]' \
        '--no-install[Never install missing backends]' \
        '--skip-failed[Do not retry FAILED links]' \
        '(-v --verbose)'{-v,--verbose}'[Verbose output]' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe -t commands 'tunegrab command' commands
            ;;
        args)
            case $words[1] in
                file|watch)
                    _files -g "*.(txt|m3u|m3u8)"
                    ;;
                config)
                    _values 'action' init show
                    ;;
                completion)
                    _values 'shell' bash zsh fish powershell
                    ;;
            esac
            ;;
    esac
}

_tunegrab "$@"
`

// FishCompletion is the fish completion script.
const FishCompletion = `# tunegrab fish completion script
# Installation: tunegrab completion fish > ~/.config/fish/completions/tunegrab.fish

set -l commands file search saved playlists albums inspect check backend-help info watch config completion help

complete -c tunegrab -f
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a file -d 'Download every pending link of a link file'
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a search -d 'Search for a song and download it'
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a saved -d 'Download your liked songs'
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a playlists -d 'Download all your playlists'
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a albums -d 'Download your saved albums'
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a inspect -d 'Preview the tracks behind a link'
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a check -d 'Check and install backends'
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a backend-help -d 'Show the spotdl help text'
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a info -d 'Show program information'
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a watch -d 'Re-run a link file whenever it changes'
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a config -d 'Create or show the configuration'
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate shell completion scripts'
complete -c tunegrab -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'

complete -c tunegrab -n "__fish_seen_subcommand_from file watch" -F
complete -c tunegrab -n "__fish_seen_subcommand_from config" -a "init show"
complete -c tunegrab -n "__fish_seen_subcommand_from completion" -a "bash zsh fish powershell"

complete -c tunegrab -s c -l config -r -F -d 'Config file'
complete -c tunegrab -s o -l out -r -a "(__fish_complete_directories)" -d 'Output directory'
complete -c tunegrab -s b -l bitrate -x -a "auto disable 8k 16k 24k 32k 40k 48k 64k 80k 96k 112k 128k 160k 192k 224k 256k 320k" -d 'Audio bitrate'
complete -c tunegrab -s f -l format -x -a "mp3 flac ogg opus m4a wav" -d 'Audio format'
complete -c tunegrab -l lyrics -x -a "genius musixmatch azlyrics synced" -d 'Lyrics provider'
complete -c tunegrab -s r -l retries -x -d 'Attempts per link'
complete -c tunegrab -l retry-delay -x -d 'Delay between attempts'
complete -c tunegrab -s j -l parallel -x -d 'Concurrent links'
complete -c tunegrab -l staging -r -a "(__fish_complete_directories)" -d 'Staging directory'
complete -c tunegrab -l zip -d 'Zip album folders'
complete -c tunegrab -l no-install -d 'Never install missing backends'
complete -c tunegrab -l skip-failed -d 'Do not retry FAILED links'
complete -c tunegrab -s v -l verbose -d 'Verbose output'
`

// PowershellCompletion is the PowerShell completion script.
const PowershellCompletion = `# tunegrab PowerShell completion script
# Installation: tunegrab completion powershell >> $PROFILE

Register-ArgumentCompleter -Native -CommandName tunegrab -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $commands = @(
        @{ Name = 'file'; Description = 'Download every pending link of a link file' }
        @{ Name = 'search'; Description = 'Search for a song and download it' }
        @{ Name = 'saved'; Description = 'Download your liked songs' }
        @{ Name = 'playlists'; Description = 'Download all your playlists' }
        @{ Name = 'albums'; Description = 'Download your saved albums' }
        @{ Name = 'inspect'; Description = 'Preview the tracks behind a link' }
        @{ Name = 'check'; Description = 'Check and install backends' }
        @{ Name = 'backend-help'; Description = 'Show the spotdl help text' }
        @{ Name = 'info'; Description = 'Show program information' }
        @{ Name = 'watch'; Description = 'Re-run a link file whenever it changes' }
        @{ Name = 'config'; Description = 'Create or show the configuration' }
        @{ Name = 'completion'; Description = 'Generate shell completion scripts' }
        @{ Name = 'help'; Description = 'Show help' }
    )
    $flags = @('-c', '--config', '-o', '--out', '-b', '--bitrate', '-f', '--format', '--lyrics', '-r', '--retries',
        '--retry-delay', '-j', '--parallel', '--staging', '--zip', '--no-install', '--skip-failed', '-v', '--verbose', '--help')

    $elements = $commandAst.CommandElements | ForEach-Object { $_.ToString() }

    if ($wordToComplete -like '-*') {
        $flags | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)
        }
        return
    }

    if ($elements.Count -le 2) {
        $commands | Where-Object { $_.Name -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterValue', $_.Description)
        }
        return
    }

    switch ($elements[1]) {
        'config' {
            @('init', 'show') | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
        }
        'completion' {
            @('bash', 'zsh', 'fish', 'powershell') | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
        }
    }
}
`
