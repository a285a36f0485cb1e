package charm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeremymatt/photo-manager/pkg/terminal"
	"github.com/kr/text"
)

const tab = "    "

// helpOutput is where help is written.
var helpOutput io.Writer = os.Stderr

func displayHelp(p path, vflag bool) {
	spec := p.last().spec
	w := helpOutput
	helpItem(w, "NAME", p.pathname()+" - "+spec.Short)
	helpDesc(w, "USAGE", spec.Usage)
	helpList(w, "OPTIONS", optionsSection(p, vflag))
	if commands := getCommands(spec, vflag); len(commands) > 0 {
		helpList(w, "COMMANDS", commands)
	}
	if strings.TrimSpace(spec.Long) != "" {
		helpDesc(w, "DESCRIPTION", spec.Long)
	}
}

func formatParagraph(body, tab string, lineWidth int) string {
	var chunks []string
	for _, paragraph := range strings.Split(body, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if len(paragraph) >= lineWidth {
			paragraph = text.Wrap(strings.Join(strings.Fields(paragraph), " "), lineWidth)
		}
		chunks = append(chunks, strings.ReplaceAll(paragraph, "\n", "\n"+tab))
	}
	return tab + strings.Join(chunks, "\n\n"+tab) + "\n\n"
}

func header(heading string) string {
	if !terminal.IsTerminal(os.Stderr) {
		return heading
	}
	return "\033[1m" + heading + "\033[0m"
}

func helpItem(w io.Writer, heading, body string) {
	fmt.Fprint(w, header(heading)+"\n"+tab+body+"\n\n")
}

func helpDesc(w io.Writer, heading, body string) {
	lineWidth := terminal.Width() - len(tab) - 5
	fmt.Fprint(w, header(heading)+"\n"+formatParagraph(body, tab, lineWidth))
}

func helpList(w io.Writer, heading string, lines []string) {
	fmt.Fprint(w, header(heading)+"\n"+tab+strings.Join(lines, "\n"+tab)+"\n\n")
}

func getCommands(target *Spec, vflag bool) []string {
	var lines []string
	for _, cmd := range target.children {
		name := cmd.Name
		if cmd.Hidden {
			if !vflag {
				continue
			}
			name = "[" + name + "]"
		}
		lines = append(lines, name+" - "+cmd.Short)
	}
	return lines
}

// optionsSection lists the flags of the selected command followed by
// those of each of its ancestors under a "[name flags]" heading.
func optionsSection(p path, vflag bool) []string {
	options := p.last().options(vflag)
	if len(options) == 0 {
		options = []string{"no flags for this command"}
	}
	for k := len(p) - 2; k >= 0; k-- {
		parent := p[k].options(vflag)
		if len(parent) == 0 {
			continue
		}
		options = append(options, "", "["+p[k].spec.Name+" flags]")
		options = append(options, parent...)
	}
	return options
}
