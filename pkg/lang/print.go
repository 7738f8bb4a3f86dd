package lang

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------------
// General information

// This section renders an AST as an indented tree, backing the compiler
// driver's -t flag. Like the TAC listing this is diagnostic output only.

func (k NodeKind) String() string {
	switch k {
	case NProgram:
		return "program"
	case NVarDecl:
		return "var-decl"
	case NFuncDecl:
		return "func-decl"
	case NStructDecl:
		return "struct-decl"
	case NBlock:
		return "block"
	case NReturnStmt:
		return "return"
	case NIfStmt:
		return "if"
	case NWhileStmt:
		return "while"
	case NBreakStmt:
		return "break"
	case NExprStmt:
		return "expr-stmt"
	case NAssignStmt:
		return "assign"
	case NIdentExpr:
		return "ident"
	case NDotExpr:
		return "dot"
	case NCallExpr:
		return "call"
	case NBinaryExpr:
		return "binary"
	case NUnaryExpr:
		return "unary"
	case NCastExpr:
		return "cast"
	case NIntLit:
		return "int-lit"
	case NRealLit:
		return "real-lit"
	case NStringLit:
		return "string-lit"
	case NCharLit:
		return "char-lit"
	case NBoolLit:
		return "bool-lit"
	default:
		return "?"
	}
}

func (op ExprOp) String() string {
	switch op {
	case EAdd:
		return "+"
	case ESub:
		return "-"
	case EMul:
		return "*"
	case EDiv:
		return "/"
	case EMod:
		return "%"
	case ELt:
		return "<"
	case EGt:
		return ">"
	case ELe:
		return "<="
	case EGe:
		return ">="
	case EEq:
		return "=="
	case ENe:
		return "!="
	case ENeg:
		return "neg"
	case ENot:
		return "!"
	default:
		return ""
	}
}

// Dump renders the subtree rooted at 'root' as an indented tree, one node per
// line with its kind, any name/operator/literal payload, and the resolved type
// when the checker has run.
func (a *Arena) Dump(root NodeRef) string {
	var b strings.Builder
	a.dump(&b, root, 0)
	return b.String()
}

func (a *Arena) dump(b *strings.Builder, ref NodeRef, depth int) {
	n := a.At(ref)
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Kind.String())

	if n.Text != "" {
		fmt.Fprintf(b, " %q", n.Text)
	}
	if n.TypeName != "" {
		fmt.Fprintf(b, " :%s", n.TypeName)
	}
	if n.Op != ENone {
		fmt.Fprintf(b, " [%s]", n.Op)
	}
	if n.LitText != "" && n.Text == "" {
		fmt.Fprintf(b, " %s", n.LitText)
	}
	if n.Type != nil {
		fmt.Fprintf(b, " <%s>", n.Type)
	}
	b.WriteByte('\n')

	for _, child := range n.Children {
		a.dump(b, child, depth+1)
	}
}
