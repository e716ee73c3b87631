package ir

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Format renders a unit as a readable listing. Scope children are numbered
// with the indices their jumps refer to; function bodies are decoded and
// shown inline.
func Format(u *Unit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "unit %s\n", u.Name)

	if len(u.Data) > 0 {
		sb.WriteString("data\n")
		for _, d := range u.Data {
			fmt.Fprintf(&sb, "  %s = %q\n", d.Name, d.Str)
		}
	}

	if len(u.Exports) > 0 {
		sb.WriteString("exports\n")
		names := make([]string, 0, len(u.Exports))
		for name := range u.Exports {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&sb, "  %s: %s\n", name, u.Exports[name])
		}
	}

	sb.WriteString("code\n")
	fprintCode(&sb, u.Code, 1, false)
	return sb.String()
}

// FormatCode renders a bare instruction list.
func FormatCode(code []Instruction) string {
	var sb strings.Builder
	fprintCode(&sb, code, 0, false)
	return sb.String()
}

func fprintCode(w io.Writer, code []Instruction, indent int, numbered bool) {
	ind := strings.Repeat("  ", indent)
	for i := range code {
		prefix := ind
		if numbered {
			prefix = fmt.Sprintf("%s%d: ", ind, i)
		}
		fprintInstruction(w, &code[i], prefix, indent)
	}
}

func fprintInstruction(w io.Writer, inst *Instruction, prefix string, indent int) {
	switch inst.Op {
	case OpScope:
		fmt.Fprintf(w, "%sscope\n", prefix)
		fprintCode(w, inst.Children, indent+1, true)
	case OpFunc:
		def := inst.Func
		params := make([]string, len(def.Params))
		for i, p := range def.Params {
			params[i] = p.Name + " " + p.Type.String()
		}
		fmt.Fprintf(w, "%sfunc %s(%s) %s\n", prefix, def.Name, strings.Join(params, ", "), def.Result)
		body, err := DecodeCode(def.Body)
		if err != nil {
			fmt.Fprintf(w, "%s  <undecodable body: %v>\n", strings.Repeat("  ", indent), err)
			return
		}
		fprintCode(w, body, indent+1, false)
	default:
		fmt.Fprintf(w, "%s%s\n", prefix, inst)
	}
}

// String renders one non-scope instruction.
func (inst Instruction) String() string {
	args := make([]string, len(inst.Args))
	for i, a := range inst.Args {
		args[i] = a.String()
	}
	operands := strings.Join(args, ", ")

	switch inst.Op {
	case OpVar, OpAlloc:
		return fmt.Sprintf("%s %s %s", inst.Op, inst.Type, operands)
	case OpCmp:
		return fmt.Sprintf("cmp %s %s", inst.Rel, operands)
	case OpJeq, OpJne:
		return fmt.Sprintf("%s %s -> %d", inst.Op, operands, inst.Target)
	case OpJmp:
		return fmt.Sprintf("jmp -> %d", inst.Target)
	case OpScope:
		return fmt.Sprintf("scope (%d children)", len(inst.Children))
	case OpFunc:
		if inst.Func != nil {
			return "func " + inst.Func.Name
		}
	}
	if operands == "" {
		return inst.Op.String()
	}
	return inst.Op.String() + " " + operands
}
