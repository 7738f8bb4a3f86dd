package lang

// ----------------------------------------------------------------------------
// General information

// This section implements the type checker: each AST node is
// visited at most once — revisits are idempotent because a populated Node.Type
// short-circuits checkExpr back to the cached value instead of re-deriving it.
// Declared types are materialised in a first pass over the globals (so a
// function can reference another function or global declared later in the
// source) and initializers/bodies are checked in a second pass, mirroring
// Resolver's own two-pass structure in resolve.go.

// TypeChecker walks a resolved AST (every identifier already carries its
// Symbol) and assigns a *Type to every expression node.
type TypeChecker struct {
	ctx        *Context
	arena      *Arena
	returnType *Type // the enclosing function's declared return type, during a body walk

	builtins map[string]*Type // lazily materialised builtin callee types (print, println)
	structs  map[string]*Type // struct name -> its materialised struct Type
}

func NewTypeChecker(ctx *Context, arena *Arena) *TypeChecker {
	return &TypeChecker{ctx: ctx, arena: arena, builtins: map[string]*Type{}, structs: map[string]*Type{}}
}

// Check type-checks the whole program rooted at 'root' (an NProgram node).
func (tc *TypeChecker) Check(root NodeRef) error {
	n := tc.arena.At(root)
	// Struct types are materialised before anything else, so a variable or
	// function declared earlier in the file may still name a struct declared
	// later (mirroring Resolver's own forward-declare pass in resolve.go).
	// A struct referencing another struct still requires that struct to
	// appear earlier among the NStructDecl children themselves.
	for _, child := range n.Children {
		if tc.arena.At(child).Kind == NStructDecl {
			if err := tc.declareType(child); err != nil {
				return err
			}
		}
	}
	for _, child := range n.Children {
		if tc.arena.At(child).Kind != NStructDecl {
			if err := tc.declareType(child); err != nil {
				return err
			}
		}
	}
	for _, child := range n.Children {
		if err := tc.checkGlobalBody(child); err != nil {
			return err
		}
	}
	return nil
}

func basicTypeFromName(name string) (*Type, bool) {
	switch name {
	case "void":
		return BasicType(TVoid), true
	case "int":
		return BasicType(TInt), true
	case "real":
		return BasicType(TReal), true
	case "char":
		return BasicType(TChar), true
	case "bool":
		return BasicType(TBool), true
	case "string":
		return BasicType(TString), true
	case "size":
		return BasicType(TSize), true
	default:
		return nil, false
	}
}

func (tc *TypeChecker) resolveTypeName(rng Range, name string) (*Type, error) {
	if t, ok := basicTypeFromName(name); ok {
		return t, nil
	}
	if t, ok := tc.structs[name]; ok {
		return t, nil
	}
	return nil, tc.ctx.Report(ErrType, rng, "unknown type %q", name)
}

// declareType materialises the declared type of a global declaration, without
// descending into initializer expressions or function bodies.
func (tc *TypeChecker) declareType(ref NodeRef) error {
	n := tc.arena.At(ref)
	switch n.Kind {
	case NVarDecl:
		t, err := tc.resolveTypeName(n.Range, n.TypeName)
		if err != nil {
			return err
		}
		n.Type = t
		return nil

	case NFuncDecl:
		params := n.Children[:n.NumParams]
		argTypes := make([]*Type, 0, len(params))
		for _, paramRef := range params {
			param := tc.arena.At(paramRef)
			t, err := tc.resolveTypeName(param.Range, param.TypeName)
			if err != nil {
				return err
			}
			param.Type = t
			argTypes = append(argTypes, t)
		}
		retType, err := tc.resolveTypeName(n.Range, n.TypeName)
		if err != nil {
			return err
		}
		n.Type = FunctionType(argTypes, retType)
		return nil

	case NStructDecl:
		fields := make([]StructField, 0, len(n.Children))
		for _, fieldRef := range n.Children {
			field := tc.arena.At(fieldRef)
			t, err := tc.resolveTypeName(field.Range, field.TypeName)
			if err != nil {
				return err
			}
			field.Type = t
			fields = append(fields, StructField{Name: field.Text, Type: t})
		}
		t := StructType(n.Text, fields)
		n.Type = t
		tc.structs[n.Text] = t
		return nil
	}
	return nil
}

func (tc *TypeChecker) checkGlobalBody(ref NodeRef) error {
	n := tc.arena.At(ref)
	switch n.Kind {
	case NVarDecl:
		if n.HasInit {
			initRef := n.Children[len(n.Children)-1]
			initT, err := tc.checkExpr(initRef)
			if err != nil {
				return err
			}
			if !n.Type.Equal(initT) {
				return tc.ctx.Report(ErrType, n.Range, "cannot initialize %s %q with a value of type %s", n.Type, n.Text, initT)
			}
		}
		return nil

	case NFuncDecl:
		prevReturn := tc.returnType
		tc.returnType = n.Type.Return
		bodyRef := n.Children[len(n.Children)-1]
		err := tc.checkBlock(bodyRef)
		tc.returnType = prevReturn
		return err

	case NStructDecl:
		return nil
	}
	return nil
}

func (tc *TypeChecker) checkBlock(ref NodeRef) error {
	n := tc.arena.At(ref)
	for _, stmt := range n.Children {
		if err := tc.checkStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// checkNestedBlockOrIf handles an if-statement branch that is either a plain
// NBlock or (for "else if" chaining) a nested NIfStmt.
func (tc *TypeChecker) checkNestedBlockOrIf(ref NodeRef) error {
	if tc.arena.At(ref).Kind == NIfStmt {
		return tc.checkStatement(ref)
	}
	return tc.checkBlock(ref)
}

func (tc *TypeChecker) checkStatement(ref NodeRef) error {
	n := tc.arena.At(ref)
	switch n.Kind {
	case NVarDecl:
		t, err := tc.resolveTypeName(n.Range, n.TypeName)
		if err != nil {
			return err
		}
		n.Type = t
		if n.HasInit {
			initRef := n.Children[len(n.Children)-1]
			initT, err := tc.checkExpr(initRef)
			if err != nil {
				return err
			}
			if !t.Equal(initT) {
				return tc.ctx.Report(ErrType, n.Range, "cannot initialize %s %q with a value of type %s", t, n.Text, initT)
			}
		}
		return nil

	case NStructDecl:
		return tc.declareType(ref)

	case NBlock:
		return tc.checkBlock(ref)

	case NReturnStmt:
		if len(n.Children) == 1 {
			t, err := tc.checkExpr(n.Children[0])
			if err != nil {
				return err
			}
			if !t.Equal(tc.returnType) {
				return tc.ctx.Report(ErrType, n.Range, "return type %s does not match function return type %s", t, tc.returnType)
			}
			return nil
		}
		if !tc.returnType.Equal(BasicType(TVoid)) {
			return tc.ctx.Report(ErrType, n.Range, "bare 'return' in a function declared to return %s", tc.returnType)
		}
		return nil

	case NIfStmt:
		condT, err := tc.checkExpr(n.Children[0])
		if err != nil {
			return err
		}
		if !condT.Equal(BasicType(TBool)) {
			return tc.ctx.Report(ErrType, n.Range, "if condition must be bool, got %s", condT)
		}
		if err := tc.checkNestedBlockOrIf(n.Children[1]); err != nil {
			return err
		}
		if len(n.Children) == 3 {
			return tc.checkNestedBlockOrIf(n.Children[2])
		}
		return nil

	case NWhileStmt:
		condT, err := tc.checkExpr(n.Children[0])
		if err != nil {
			return err
		}
		if !condT.Equal(BasicType(TBool)) {
			return tc.ctx.Report(ErrType, n.Range, "while condition must be bool, got %s", condT)
		}
		return tc.checkBlock(n.Children[1])

	case NBreakStmt:
		return nil

	case NExprStmt:
		_, err := tc.checkExpr(n.Children[0])
		return err

	case NAssignStmt:
		lt, err := tc.checkExpr(n.Children[0])
		if err != nil {
			return err
		}
		rt, err := tc.checkExpr(n.Children[1])
		if err != nil {
			return err
		}
		if !lt.Equal(rt) {
			return tc.ctx.Report(ErrType, n.Range, "cannot assign value of type %s to target of type %s", rt, lt)
		}
		return nil
	}
	return nil
}

// builtinType materialises (and caches) the FunctionType for a builtin
// callee. print/println accept any number of heterogeneous arguments: the
// type has an empty Args list, and checkExpr skips arity/type checking for
// any call whose callee Symbol is marked Builtin.
func (tc *TypeChecker) builtinType(name string) *Type {
	if t, ok := tc.builtins[name]; ok {
		return t
	}
	t := FunctionType(nil, BasicType(TVoid))
	tc.builtins[name] = t
	return t
}

func (tc *TypeChecker) checkExpr(ref NodeRef) (*Type, error) {
	n := tc.arena.At(ref)
	if n.Type != nil {
		return n.Type, nil
	}

	var t *Type
	switch n.Kind {
	case NIntLit:
		t = BasicType(TInt)
	case NRealLit:
		t = BasicType(TReal)
	case NStringLit:
		t = BasicType(TString)
	case NCharLit:
		t = BasicType(TChar)
	case NBoolLit:
		t = BasicType(TBool)

	case NIdentExpr:
		declT, err := tc.typeOfSymbol(n)
		if err != nil {
			return nil, err
		}
		t = declT

	case NDotExpr:
		if _, err := tc.checkExpr(n.Children[0]); err != nil {
			return nil, err
		}
		declT, err := tc.typeOfSymbol(n)
		if err != nil {
			return nil, err
		}
		t = declT

	case NCallExpr:
		callee := tc.arena.At(n.Children[0])
		var ft *Type
		if callee.Symbol.Builtin {
			ft = tc.builtinType(callee.Symbol.Name)
		} else {
			funcNode := tc.arena.At(callee.Symbol.Node)
			ft = funcNode.Type
		}
		args := n.Children[1:]
		if !callee.Symbol.Builtin {
			if len(args) != len(ft.Args) {
				return nil, tc.ctx.Report(ErrType, n.Range, "%q expects %d argument(s), got %d", callee.Text, len(ft.Args), len(args))
			}
			for i, argRef := range args {
				argT, err := tc.checkExpr(argRef)
				if err != nil {
					return nil, err
				}
				if !argT.Equal(ft.Args[i]) {
					return nil, tc.ctx.Report(ErrType, n.Range, "argument %d to %q has type %s, expected %s", i+1, callee.Text, argT, ft.Args[i])
				}
			}
		} else {
			// Builtin call: still type every argument so each gets a Type, but
			// accept any combination (heterogeneous varargs).
			for _, argRef := range args {
				if _, err := tc.checkExpr(argRef); err != nil {
					return nil, err
				}
			}
		}
		t = ft.Return

	case NBinaryExpr:
		lt, err := tc.checkExpr(n.Children[0])
		if err != nil {
			return nil, err
		}
		rt, err := tc.checkExpr(n.Children[1])
		if err != nil {
			return nil, err
		}
		if !lt.Equal(rt) {
			return nil, tc.ctx.Report(ErrType, n.Range, "operand type mismatch: %s vs %s", lt, rt)
		}
		switch n.Op {
		case ELt, EGt, ELe, EGe, EEq, ENe:
			t = BasicType(TBool)
		default:
			t = lt
		}

	case NUnaryExpr:
		operandT, err := tc.checkExpr(n.Children[0])
		if err != nil {
			return nil, err
		}
		if n.Op == ENot {
			if !operandT.Equal(BasicType(TBool)) {
				return nil, tc.ctx.Report(ErrType, n.Range, "'!' requires a bool operand, got %s", operandT)
			}
			t = BasicType(TBool)
		} else { // ENeg
			if !operandT.Equal(BasicType(TInt)) && !operandT.Equal(BasicType(TReal)) {
				return nil, tc.ctx.Report(ErrType, n.Range, "unary '-' requires an int or real operand, got %s", operandT)
			}
			t = operandT
		}

	case NCastExpr:
		if _, err := tc.checkExpr(n.Children[0]); err != nil {
			return nil, err
		}
		target, err := tc.resolveTypeName(n.Range, n.TypeName)
		if err != nil {
			return nil, err
		}
		// Accept any source type here; whether the conversion is actually
		// lowerable is a codegen-time concern (only real->int is implemented,
		// everything else reports ErrCodegen instead of silently miscompiling).
		t = target

	default:
		return nil, tc.ctx.Report(ErrType, n.Range, "cannot type-check node kind %d", n.Kind)
	}

	n.Type = t
	return t, nil
}

// typeOfSymbol returns the declared Type of the node an identifier/dot-access
// Symbol resolved to (set during declareType/checkStatement's NVarDecl case).
func (tc *TypeChecker) typeOfSymbol(n *Node) (*Type, error) {
	if n.Symbol == nil || n.Symbol.Node == NoRef {
		return nil, tc.ctx.Report(ErrType, n.Range, "%q has no resolvable declaration", n.Text)
	}
	decl := tc.arena.At(n.Symbol.Node)
	if decl.Type == nil {
		t, err := tc.resolveTypeName(decl.Range, decl.TypeName)
		if err != nil {
			return nil, err
		}
		decl.Type = t
	}
	return decl.Type, nil
}
