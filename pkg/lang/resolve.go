package lang

// ----------------------------------------------------------------------------
// General information

// This section implements symbol resolution: a pre-order walk of
// the AST that installs builtins into the global scope first, pushes a
// function-local scope (backing onto global) for each NFuncDecl, pushes a
// nested scope (backing onto its enclosing scope) for each NBlock, and
// annotates every NIdentExpr/NDotExpr/NCallExpr with the Symbol it resolves to.

// Resolver threads the global scope, the struct-declaration registry (needed
// for dot-access-chain resolution through a struct's own field Scope) and the
// Arena being annotated.
type Resolver struct {
	ctx    *Context
	arena  *Arena
	global *Scope
	structs map[string]*Symbol // struct name -> its GlobalStruct symbol (Sub holds fields)
}

// NewResolver installs the builtins (print, println) into a fresh global scope.
func NewResolver(ctx *Context, arena *Arena) *Resolver {
	global := NewGlobalScope()
	r := &Resolver{ctx: ctx, arena: arena, global: global, structs: map[string]*Symbol{}}
	r.installBuiltin("print")
	r.installBuiltin("println")
	return r
}

func (r *Resolver) installBuiltin(name string) {
	sym := &Symbol{Name: name, Kind: Function, Node: NoRef, Builtin: true}
	_ = r.global.Insert(sym) // builtins are installed once; collision is impossible here
}

// Resolve walks 'root' (an NProgram node) and annotates every identifier,
// dot-access and call node with its resolved Symbol.
func (r *Resolver) Resolve(root NodeRef) error {
	node := r.arena.At(root)

	// First pass over the globals registers every struct, function and
	// global-variable name before any function body is visited, so mutually
	// recursive functions (and forward references to globals) resolve.
	for _, child := range node.Children {
		if err := r.declareGlobal(child); err != nil {
			return err
		}
	}
	for _, child := range node.Children {
		if err := r.resolveGlobal(child); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) declareGlobal(ref NodeRef) error {
	n := r.arena.At(ref)
	switch n.Kind {
	case NVarDecl:
		sym := &Symbol{Name: n.Text, Kind: GlobalVar, Node: ref}
		if err := r.global.Insert(sym); err != nil {
			return r.ctx.Report(ErrName, n.NameRange, "%s", err)
		}
		n.Symbol = sym
	case NFuncDecl:
		sym := &Symbol{Name: n.Text, Kind: Function, Node: ref}
		if err := r.global.Insert(sym); err != nil {
			return r.ctx.Report(ErrName, n.NameRange, "%s", err)
		}
		n.Symbol = sym
	case NStructDecl:
		sym := &Symbol{Name: n.Text, Kind: GlobalStruct, Node: ref, Sub: Push(r.global)}
		if err := r.global.Insert(sym); err != nil {
			return r.ctx.Report(ErrName, n.NameRange, "%s", err)
		}
		n.Symbol = sym
		r.structs[n.Text] = sym
		for _, fieldRef := range n.Children {
			field := r.arena.At(fieldRef)
			fsym := &Symbol{Name: field.Text, Kind: LocalVar, Node: fieldRef}
			if err := sym.Sub.Insert(fsym); err != nil {
				return r.ctx.Report(ErrName, field.NameRange, "%s", err)
			}
			field.Symbol = fsym
		}
	}
	return nil
}

func (r *Resolver) resolveGlobal(ref NodeRef) error {
	n := r.arena.At(ref)
	switch n.Kind {
	case NVarDecl:
		if n.HasInit {
			return r.resolveExpr(r.global, n.Children[len(n.Children)-1])
		}
		return nil
	case NFuncDecl:
		return r.resolveFunc(ref)
	case NStructDecl:
		return nil // fields already declared; no initializers to resolve
	}
	return nil
}

func (r *Resolver) resolveFunc(ref NodeRef) error {
	n := r.arena.At(ref)
	fnScope := Push(r.global)

	paramRefs := n.Children[:n.NumParams]
	bodyRef := n.Children[len(n.Children)-1]

	for _, paramRef := range paramRefs {
		param := r.arena.At(paramRef)
		sym := &Symbol{Name: param.Text, Kind: Parameter, Node: paramRef}
		if err := fnScope.Insert(sym); err != nil {
			return r.ctx.Report(ErrName, param.NameRange, "%s", err)
		}
		param.Symbol = sym
	}

	return r.resolveBlockIn(fnScope, bodyRef)
}

// resolveBlockIn resolves a block's statements using 'scope' directly as the
// block's own scope (used for a function's outermost block, whose scope is
// the function-local scope carrying its parameters rather than a fresh push).
func (r *Resolver) resolveBlockIn(scope *Scope, ref NodeRef) error {
	n := r.arena.At(ref)
	for _, stmt := range n.Children {
		if err := r.resolveStatement(scope, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveBlock(parent *Scope, ref NodeRef) error {
	return r.resolveBlockIn(Push(parent), ref)
}

func (r *Resolver) resolveStatement(scope *Scope, ref NodeRef) error {
	n := r.arena.At(ref)
	switch n.Kind {
	case NVarDecl:
		if n.HasInit {
			if err := r.resolveExpr(scope, n.Children[len(n.Children)-1]); err != nil {
				return err
			}
		}
		sym := &Symbol{Name: n.Text, Kind: LocalVar, Node: ref}
		if err := scope.Insert(sym); err != nil {
			return r.ctx.Report(ErrName, n.NameRange, "%s", err)
		}
		n.Symbol = sym
		return nil

	case NStructDecl:
		sym := &Symbol{Name: n.Text, Kind: LocalStruct, Node: ref, Sub: Push(scope)}
		if err := scope.Insert(sym); err != nil {
			return r.ctx.Report(ErrName, n.NameRange, "%s", err)
		}
		n.Symbol = sym
		r.structs[n.Text] = sym
		for _, fieldRef := range n.Children {
			field := r.arena.At(fieldRef)
			fsym := &Symbol{Name: field.Text, Kind: LocalVar, Node: fieldRef}
			if err := sym.Sub.Insert(fsym); err != nil {
				return r.ctx.Report(ErrName, field.NameRange, "%s", err)
			}
			field.Symbol = fsym
		}
		return nil

	case NBlock:
		return r.resolveBlock(scope, ref)

	case NReturnStmt:
		if len(n.Children) == 1 {
			return r.resolveExpr(scope, n.Children[0])
		}
		return nil

	case NIfStmt:
		if err := r.resolveExpr(scope, n.Children[0]); err != nil {
			return err
		}
		if err := r.resolveChild(scope, n.Children[1]); err != nil {
			return err
		}
		if len(n.Children) == 3 {
			return r.resolveChild(scope, n.Children[2])
		}
		return nil

	case NWhileStmt:
		if err := r.resolveExpr(scope, n.Children[0]); err != nil {
			return err
		}
		return r.resolveBlock(scope, n.Children[1])

	case NBreakStmt:
		return nil

	case NExprStmt:
		return r.resolveExpr(scope, n.Children[0])

	case NAssignStmt:
		if err := r.resolveExpr(scope, n.Children[0]); err != nil {
			return err
		}
		return r.resolveExpr(scope, n.Children[1])
	}
	return nil
}

// resolveChild resolves a child that may itself be a nested NIfStmt
// (else-if chaining) or an NBlock, both of which already push their own scope.
func (r *Resolver) resolveChild(scope *Scope, ref NodeRef) error {
	n := r.arena.At(ref)
	if n.Kind == NIfStmt {
		return r.resolveStatement(scope, ref)
	}
	return r.resolveBlock(scope, ref)
}

func (r *Resolver) resolveExpr(scope *Scope, ref NodeRef) error {
	n := r.arena.At(ref)
	switch n.Kind {
	case NIdentExpr:
		sym, err := scope.Lookup(n.Text)
		if err != nil {
			return r.ctx.Report(ErrName, n.Range, "%s", err)
		}
		n.Symbol = sym
		return nil

	case NDotExpr:
		if err := r.resolveExpr(scope, n.Children[0]); err != nil {
			return err
		}
		base := r.arena.At(n.Children[0])
		fields := r.fieldScopeOf(base)
		if fields == nil {
			return r.ctx.Report(ErrName, n.Range, "%q is not a struct-typed value, has no field %q", textOrKind(base), n.Text)
		}
		sym, err := fields.Lookup(n.Text)
		if err != nil {
			return r.ctx.Report(ErrName, n.Range, "no field %q on struct", n.Text)
		}
		n.Symbol = sym
		return nil

	case NCallExpr:
		callee := r.arena.At(n.Children[0])
		if callee.Kind != NIdentExpr {
			return r.ctx.Report(ErrName, callee.Range, "call target must be a plain identifier")
		}
		sym, err := scope.Lookup(callee.Text)
		if err != nil {
			return r.ctx.Report(ErrName, callee.Range, "%s", err)
		}
		if sym.Kind != Function {
			return r.ctx.Report(ErrName, callee.Range, "%q is not a function", callee.Text)
		}
		callee.Symbol = sym
		n.Symbol = sym
		for _, arg := range n.Children[1:] {
			if err := r.resolveExpr(scope, arg); err != nil {
				return err
			}
		}
		return nil

	case NBinaryExpr:
		if err := r.resolveExpr(scope, n.Children[0]); err != nil {
			return err
		}
		return r.resolveExpr(scope, n.Children[1])

	case NUnaryExpr, NCastExpr:
		return r.resolveExpr(scope, n.Children[0])

	case NIntLit, NRealLit, NStringLit, NCharLit, NBoolLit:
		return nil
	}
	return nil
}

// fieldScopeOf returns the field Scope of a struct-typed expression node, or
// nil if 'n' cannot be resolved to a struct instance. It runs during
// resolution, before any type checking: it reads the declaring NVarDecl's
// TypeName text (the same text the checker later turns into a *Type) and
// looks it up in the declared struct registry.
func (r *Resolver) fieldScopeOf(n *Node) *Scope {
	var typeName string
	switch n.Kind {
	case NIdentExpr, NDotExpr:
		if n.Symbol == nil || n.Symbol.Node == NoRef {
			return nil
		}
		decl := r.arena.At(n.Symbol.Node)
		typeName = decl.TypeName
	default:
		return nil
	}
	if structSym, ok := r.structs[typeName]; ok {
		return structSym.Sub
	}
	return nil
}

func textOrKind(n *Node) string {
	if n.Text != "" {
		return n.Text
	}
	return "<expr>"
}
