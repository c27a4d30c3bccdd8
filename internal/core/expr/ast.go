package expr

// The AST is a closed set of node types. Evaluation is a structural walk
// over these nodes and nothing else, which is what keeps author-supplied
// conditions from ever reaching a general evaluation path.

type node interface {
	pos() int
}

type litNode struct {
	at  int
	val any // string, bool, or float64
}

func (n litNode) pos() int { return n.at }

type varNode struct {
	at   int
	name string
}

func (n varNode) pos() int { return n.at }

type listNode struct {
	at    int
	elems []litNode
}

func (n listNode) pos() int { return n.at }

type cmpOp int

const (
	opEq cmpOp = iota
	opNe
	opIn
	opNotIn
)

func (op cmpOp) String() string {
	switch op {
	case opEq:
		return "=="
	case opNe:
		return "!="
	case opIn:
		return "in"
	default:
		return "not in"
	}
}

type cmpNode struct {
	at    int
	op    cmpOp
	left  node
	right node
}

func (n cmpNode) pos() int { return n.at }

type boolOp int

const (
	opAnd boolOp = iota
	opOr
)

type boolNode struct {
	at    int
	op    boolOp
	left  node
	right node
}

func (n boolNode) pos() int { return n.at }

type notNode struct {
	at      int
	operand node
}

func (n notNode) pos() int { return n.at }

// walkVars calls fn for every variable reference in the tree.
func walkVars(n node, fn func(varNode)) {
	switch v := n.(type) {
	case varNode:
		fn(v)
	case cmpNode:
		walkVars(v.left, fn)
		walkVars(v.right, fn)
	case boolNode:
		walkVars(v.left, fn)
		walkVars(v.right, fn)
	case notNode:
		walkVars(v.operand, fn)
	}
}
