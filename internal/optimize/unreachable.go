package optimize

import (
	"github.com/samber/lo"

	"nanocc/internal/ir"
)

// block is a maximal straight-line run of instructions: it begins at a
// Label or right after a control transfer, and ends with the first
// Jump/Return/JumpIfZero/JumpIfNotZero it contains, if any.
type block struct {
	label  string // "" if this block has no Label of its own
	instrs []ir.Instruction
}

// eliminateUnreachableCode builds a CFG from the label/jump graph and
// drops blocks unreachable from the entry block (spec.md section 4.3).
// Splitting at every control transfer, not just at Labels, matters: a
// JumpIfZero/JumpIfNotZero almost always sits in the middle of an
// if/loop's instruction run rather than at the very end of it, and its
// jump target has to be visible to reachability analysis the same way
// an ending Jump's is.
func eliminateUnreachableCode(instrs []ir.Instruction) ([]ir.Instruction, bool) {
	blocks := splitBlocks(instrs)

	labelIndex := map[string]int{}
	for i, b := range blocks {
		if b.label != "" {
			labelIndex[b.label] = i
		}
	}

	reachable := newSet[int]()
	var visit func(i int)
	visit = func(i int) {
		if i < 0 || i >= len(blocks) || !reachable.Add(i) {
			return
		}
		for _, succ := range successors(blocks[i], i, labelIndex) {
			visit(succ)
		}
	}
	if len(blocks) > 0 {
		visit(0)
	}

	kept := lo.Filter(blocks, func(_ block, i int) bool { return reachable.Contains(i) })
	out := lo.FlatMap(kept, func(b block, _ int) []ir.Instruction { return b.instrs })
	return out, len(kept) != len(blocks)
}

// splitBlocks partitions instrs into basic blocks: a new block starts at
// every Label and right after every control-transfer instruction, so
// each block ends with at most one Jump/Return/JumpIfZero/JumpIfNotZero,
// always as its last instruction.
func splitBlocks(instrs []ir.Instruction) []block {
	var blocks []block
	cur := block{}
	flush := func() {
		if len(cur.instrs) > 0 {
			blocks = append(blocks, cur)
		}
		cur = block{}
	}
	for _, instr := range instrs {
		if lbl, ok := instr.(*ir.Label); ok {
			flush()
			cur = block{label: lbl.Name, instrs: []ir.Instruction{instr}}
			continue
		}
		cur.instrs = append(cur.instrs, instr)
		switch instr.(type) {
		case *ir.Jump, *ir.Return, *ir.JumpIfZero, *ir.JumpIfNotZero:
			flush()
		}
	}
	flush()
	return blocks
}

func successors(b block, index int, labelIndex map[string]int) []int {
	if len(b.instrs) == 0 {
		return []int{index + 1}
	}
	last := b.instrs[len(b.instrs)-1]
	switch in := last.(type) {
	case *ir.Jump:
		return []int{labelIndex[in.Label]}
	case *ir.Return:
		return nil
	case *ir.JumpIfZero:
		return []int{index + 1, labelIndex[in.Label]}
	case *ir.JumpIfNotZero:
		return []int{index + 1, labelIndex[in.Label]}
	default:
		return []int{index + 1}
	}
}
