package btx

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/tree"
	bt "github.com/joeycumines/go-behaviortree"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	kindTitle = cases.Title(language.Und)

	styleName    = lipgloss.NewStyle().Bold(true)
	styleKind    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFailure = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleBranch  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).PaddingRight(1)
)

// Render draws the tree rooted at root, one behaviour per line, annotated with its
// kind, parallel policy and last status. Styled output includes ANSI colours.
func Render(root *Behaviour, styled bool) string {
	t := renderNode(root, styled).Enumerator(tree.RoundedEnumerator)
	if styled {
		t = t.EnumeratorStyle(styleBranch)
	}
	return t.String()
}

func renderNode(b *Behaviour, styled bool) *tree.Tree {
	t := tree.Root(label(b, styled))
	for _, c := range b.children {
		if len(c.children) == 0 {
			t.Child(label(c, styled))
		} else {
			t.Child(renderNode(c, styled))
		}
	}
	return t
}

func label(b *Behaviour, styled bool) string {
	kind := kindTitle.String(b.kind.String())
	if b.kind == KindParallel {
		kind += ", " + b.policy.String()
	}
	name, kind := b.name, "("+kind+")"
	status := ""
	if s, ok := b.Status(); ok {
		status = statusText(s)
	}
	if styled {
		name, kind = styleName.Render(name), styleKind.Render(kind)
		switch status {
		case "success":
			status = styleSuccess.Render(status)
		case "failure":
			status = styleFailure.Render(status)
		case "running":
			status = styleRunning.Render(status)
		}
	}
	if status == "" {
		return fmt.Sprintf("%s %s", name, kind)
	}
	return fmt.Sprintf("%s %s [%s]", name, kind, status)
}

func statusText(s bt.Status) string {
	switch s {
	case bt.Success:
		return "success"
	case bt.Failure:
		return "failure"
	case bt.Running:
		return "running"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}
