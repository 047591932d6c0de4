package design

import (
	"demc/utils/debug"
)

// DumpTree renders node hierarchy in a compact indented form, useful when
// troubleshooting layout decisions.
func DumpTree(roots []*Node) string {
	tw := debug.NewTreeWriter()
	for _, r := range roots {
		dumpNode(tw, r, 0)
	}
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, n *Node, depth int) {
	visibility := ""
	if !n.Visible {
		visibility = " hidden"
	}
	tw.Line(depth, "%s %q [%.1fx%.1f @ %.1f,%.1f]%s", n.Kind, n.Name, n.Width, n.Height, n.X, n.Y, visibility)
	if n.Kind == KindText {
		tw.TextBlock(depth+1, "text", n.Characters())
	}
	for _, c := range n.Children {
		dumpNode(tw, c, depth+1)
	}
}
