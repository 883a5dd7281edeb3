package commands

import (
	"fmt"
	"io"
	"strings"
)

// Completion provides shell completion scripts for bash and zsh.
// Usage:
//
//	etlrun completion           # prints completions for all supported shells
//	etlrun completion bash      # prints bash completion
//	etlrun completion zsh       # prints zsh completion
func Completion(app *App, args []string) error {
	shell := ""
	if len(args) > 0 {
		shell = strings.ToLower(args[0])
	}

	switch shell {
	case "bash":
		printBashCompletion(app.Stdout)
		return nil
	case "zsh":
		printZshCompletion(app.Stdout)
		return nil
	case "", "all":
		printBashCompletion(app.Stdout)
		fmt.Fprintln(app.Stdout)
		printZshCompletion(app.Stdout)
		return nil
	default:
		fmt.Fprintf(app.Stderr, "unknown shell: %s (supported: bash, zsh)\n", shell)
		return fmt.Errorf("unsupported shell: %s", shell)
	}
}

func printBashCompletion(w io.Writer) {
	fmt.Fprintln(w, `# bash completion for etlrun
_etlrun_completions()
{
    local cur prev words cword
    _init_completion || return

    local -a commands
    commands=(
        run doctor setup digest cache watch completion help version
    )

    case ${COMP_CWORD} in
        1)
            COMPREPLY=( $(compgen -W "${commands[*]} --verbose --debug --dir" -- "$cur") )
            return ;;
        *)
            case ${COMP_WORDS[1]} in
                run)
                    COMPREPLY=( $(compgen -W "--no-pause --strict --skip-unchanged --python" -- "$cur") ) ;;
                doctor)
                    COMPREPLY=( $(compgen -W "--fix -v" -- "$cur") ) ;;
                setup)
                    COMPREPLY=( $(compgen -W "--force --no-venv --no-install" -- "$cur") ) ;;
                digest)
                    COMPREPLY=( $(compgen -W "--algorithm --requirements --json" -- "$cur") ) ;;
                cache)
                    COMPREPLY=( $(compgen -W "status clear" -- "$cur") ) ;;
                watch)
                    COMPREPLY=( $(compgen -W "--debounce --python" -- "$cur") ) ;;
                completion)
                    COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") ) ;;
                *)
                    COMPREPLY=( $(compgen -W "--verbose --debug" -- "$cur") ) ;;
            esac
            return ;;
    esac
}
complete -F _etlrun_completions etlrun`)
}

func printZshCompletion(w io.Writer) {
	fmt.Fprintln(w, `#compdef etlrun
_etlrun() {
  local -a commands
  commands=(
    'run:Install dependencies and run the ETL (default)'
    'doctor:Project health check'
    'setup:Create config, folders and virtual environment'
    'digest:Show the requirements digest'
    'cache:Install stamp management'
    'watch:Rerun the ETL when input files change'
    'completion:Generate shell completion scripts'
    'version:Show version'
    'help:Show help'
  )

  _arguments \
    '1: :->cmds' \
    '*:: :->args'

  case $state in
    cmds)
      _describe 'command' commands
      ;;
    args)
      case $words[1] in
        completion)
          _values 'shell' bash zsh
          ;;
        cache)
          _values 'subcommand' status clear
          ;;
        run)
          _values 'options' --no-pause --strict --skip-unchanged --python
          ;;
        *)
          _message 'arguments'
          ;;
      esac
      ;;
  esac
}
_etlrun "$@"`)
}
