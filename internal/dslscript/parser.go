package dslscript

import (
	"fmt"
	"strconv"
	"strings"
)

// stream is a cursor over a lexed statement's tokens.
type stream struct {
	tokens []Token
	pos    int
}

func (s *stream) hasNext() bool { return s.pos < len(s.tokens) }

func (s *stream) next() (Token, error) {
	if !s.hasNext() {
		return Token{}, fmt.Errorf("dslscript: unexpected end of statement")
	}
	t := s.tokens[s.pos]
	s.pos++
	return t, nil
}

func (s *stream) peek() (Token, bool) {
	if !s.hasNext() {
		return Token{}, false
	}
	return s.tokens[s.pos], true
}

func (s *stream) expectWord(word string) error {
	t, err := s.next()
	if err != nil {
		return err
	}
	if !strings.EqualFold(t.Text, word) {
		return fmt.Errorf("dslscript: expected %q, got %q", word, t.Text)
	}
	return nil
}

func (s *stream) nextInt() (int, error) {
	t, err := s.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(t.Text)
	if err != nil {
		return 0, fmt.Errorf("dslscript: expected a number, got %q", t.Text)
	}
	return n, nil
}

// Parse lexes and parses one DSL statement line.
func Parse(line string) (Statement, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Statement{}, nil
	}
	tokens, err := Lex(trimmed)
	if err != nil {
		return Statement{}, err
	}
	if len(tokens) == 0 {
		return Statement{}, nil
	}

	s := &stream{tokens: tokens}
	head, _ := s.next()
	switch strings.ToLower(head.Text) {
	case "create":
		return parseCreate(s)
	case "execute":
		return parseExecute(s)
	case "print":
		return parsePrint(s)
	case "help":
		return parseHelp(s)
	case "exit":
		return Statement{Exit: &ExitStatement{}}, nil
	default:
		return Statement{}, fmt.Errorf("dslscript: unknown statement %q", head.Text)
	}
}

func parseCreate(s *stream) (Statement, error) {
	next, err := s.next()
	if err != nil {
		return Statement{}, fmt.Errorf("dslscript: create requires dataset or task: %w", err)
	}
	switch strings.ToLower(next.Text) {
	case "dataset":
		return parseCreateDataset(s)
	case "task":
		return parseCreateTask(s)
	default:
		return Statement{}, fmt.Errorf("dslscript: create requires dataset or task, got %q", next.Text)
	}
}

func parseCreateDataset(s *stream) (Statement, error) {
	name, err := s.next()
	if err != nil {
		return Statement{}, fmt.Errorf("dslscript: create dataset requires a name: %w", err)
	}
	stmt := &CreateDatasetStatement{Name: name.Text}

	for {
		tok, ok := s.peek()
		if !ok || !strings.EqualFold(tok.Text, "with") {
			break
		}
		_, _ = s.next()
		peeked, ok := s.peek()
		if !ok {
			return Statement{}, fmt.Errorf("dslscript: create dataset with-clause is incomplete")
		}
		if strings.EqualFold(peeked.Text, "header") {
			_, _ = s.next()
			stmt.HasHeader = true
			continue
		}
		group, err := parseColumnGroup(s, peeked)
		if err != nil {
			return Statement{}, err
		}
		stmt.ColumnGroups = append(stmt.ColumnGroups, group)
	}

	if err := s.expectWord("using"); err != nil {
		return Statement{}, fmt.Errorf("dslscript: create dataset requires a using clause: %w", err)
	}
	loc, err := s.next()
	if err != nil {
		return Statement{}, fmt.Errorf("dslscript: create dataset requires a location: %w", err)
	}
	// The lexer splits "file://<path>" at its ':'; rejoin the remaining
	// tokens into one location string.
	location := loc.Text
	for s.hasNext() {
		t, _ := s.next()
		location += t.Text
	}
	stmt.Location = location

	return Statement{CreateDataset: stmt}, nil
}

func parseColumnGroup(s *stream, use Token) (ColumnGroupSpec, error) {
	_, _ = s.next() // consume "given"/"expected"
	given := strings.EqualFold(use.Text, "given")
	if !given && !strings.EqualFold(use.Text, "expected") {
		return ColumnGroupSpec{}, fmt.Errorf("dslscript: with clause must be given or expected, got %q", use.Text)
	}

	dataType, err := s.next()
	if err != nil {
		return ColumnGroupSpec{}, fmt.Errorf("dslscript: with clause missing data type: %w", err)
	}
	switch strings.ToLower(dataType.Text) {
	case "label", "number", "text", "image":
	default:
		return ColumnGroupSpec{}, fmt.Errorf("dslscript: with clause data type must be label, number, text, or image, got %q", dataType.Text)
	}

	group := ColumnGroupSpec{Given: given, DataType: strings.ToLower(dataType.Text), Rows: 1, Columns: 1, Channels: 1}

	peeked, ok := s.peek()
	if ok && peeked.Text == "(" {
		_, _ = s.next()
		a, err := s.nextInt()
		if err != nil {
			return ColumnGroupSpec{}, err
		}
		sep, err := s.next()
		if err != nil {
			return ColumnGroupSpec{}, err
		}
		switch sep.Text {
		case ")":
			group.Columns = a
		case ",":
			b, err := s.nextInt()
			if err != nil {
				return ColumnGroupSpec{}, err
			}
			closeOrComma, err := s.next()
			if err != nil {
				return ColumnGroupSpec{}, err
			}
			switch closeOrComma.Text {
			case ")":
				group.Rows, group.Columns = a, b
			case ",":
				c, err := s.nextInt()
				if err != nil {
					return ColumnGroupSpec{}, err
				}
				if err := expectToken(s, ")"); err != nil {
					return ColumnGroupSpec{}, err
				}
				group.Rows, group.Columns, group.Channels = a, b, c
			default:
				return ColumnGroupSpec{}, fmt.Errorf("dslscript: expected , or ) in dimensions, got %q", closeOrComma.Text)
			}
		default:
			return ColumnGroupSpec{}, fmt.Errorf("dslscript: expected , or ) in dimensions, got %q", sep.Text)
		}
	}

	if err := s.expectWord("at"); err != nil {
		return ColumnGroupSpec{}, fmt.Errorf("dslscript: with clause requires 'at <column_index>': %w", err)
	}
	idx, err := s.nextInt()
	if err != nil {
		return ColumnGroupSpec{}, err
	}
	group.AtColumnIndex = idx

	return group, nil
}

func expectToken(s *stream, text string) error {
	t, err := s.next()
	if err != nil {
		return err
	}
	if t.Text != text {
		return fmt.Errorf("dslscript: expected %q, got %q", text, t.Text)
	}
	return nil
}

func parseCreateTask(s *stream) (Statement, error) {
	taskType, err := s.next()
	if err != nil {
		return Statement{}, fmt.Errorf("dslscript: create task requires a type: %w", err)
	}
	taskName, err := s.next()
	if err != nil {
		return Statement{}, fmt.Errorf("dslscript: create task requires a name: %w", err)
	}

	stmt := &CreateTaskStatement{TaskType: taskType.Text, TaskName: taskName.Text, Goal: "accuracy"}

	for {
		tok, ok := s.peek()
		if !ok || !strings.EqualFold(tok.Text, "with") {
			break
		}
		_, _ = s.next()
		param, err := s.next()
		if err != nil {
			return Statement{}, fmt.Errorf("dslscript: create task with-clause is incomplete: %w", err)
		}
		val, err := s.next()
		if err != nil {
			return Statement{}, fmt.Errorf("dslscript: create task with-clause is incomplete: %w", err)
		}
		switch strings.ToLower(param.Text) {
		case "test":
			stmt.TestDatasetName = val.Text
		case "goal":
			stmt.Goal = val.Text
		default:
			return Statement{}, fmt.Errorf("dslscript: create task with-clause must be goal or test, got %q", param.Text)
		}
	}

	if err := s.expectWord("using"); err != nil {
		return Statement{}, fmt.Errorf("dslscript: create task requires a using clause: %w", err)
	}
	dsName, err := s.next()
	if err != nil {
		return Statement{}, fmt.Errorf("dslscript: create task requires a dataset name: %w", err)
	}
	stmt.DatasetName = dsName.Text

	return Statement{CreateTask: stmt}, nil
}

func parseExecute(s *stream) (Statement, error) {
	if err := s.expectWord("task"); err != nil {
		return Statement{}, fmt.Errorf("dslscript: execute requires task: %w", err)
	}
	name, err := s.next()
	if err != nil {
		return Statement{}, fmt.Errorf("dslscript: execute task requires a name: %w", err)
	}
	stmt := &ExecuteTaskStatement{TaskName: name.Text, Label: "default"}

	for {
		tok, ok := s.peek()
		if !ok || !strings.EqualFold(tok.Text, "with") {
			break
		}
		_, _ = s.next()
		if err := s.expectWord("label"); err != nil {
			return Statement{}, err
		}
		label, err := s.next()
		if err != nil {
			return Statement{}, err
		}
		stmt.Label = label.Text
	}

	if err := s.expectWord("using"); err != nil {
		return Statement{}, fmt.Errorf("dslscript: execute task requires a using clause: %w", err)
	}
	kind, err := s.next()
	if err != nil {
		return Statement{}, fmt.Errorf("dslscript: execute task using clause is incomplete: %w", err)
	}
	switch strings.ToLower(kind.Text) {
	case "dataset":
		dsName, err := s.next()
		if err != nil {
			return Statement{}, fmt.Errorf("dslscript: execute task using dataset requires a name: %w", err)
		}
		stmt.DatasetName = dsName.Text
	case "input":
		inputs, err := parseInputMap(s)
		if err != nil {
			return Statement{}, err
		}
		stmt.Inputs = inputs
	default:
		return Statement{}, fmt.Errorf("dslscript: execute task using clause must be dataset or input, got %q", kind.Text)
	}

	return Statement{ExecuteTask: stmt}, nil
}

// parseInputMap parses "(key: value, key: value, ...)" where value is a
// bareword, a quoted string, or a bracketed list of either.
func parseInputMap(s *stream) (map[string][]string, error) {
	if err := expectToken(s, "("); err != nil {
		return nil, fmt.Errorf("dslscript: execute task using input requires a parenthesized list: %w", err)
	}
	inputs := map[string][]string{}
	for {
		peeked, ok := s.peek()
		if ok && peeked.Text == ")" {
			_, _ = s.next()
			break
		}
		key, err := s.next()
		if err != nil {
			return nil, fmt.Errorf("dslscript: execute task input key missing: %w", err)
		}
		if err := expectToken(s, ":"); err != nil {
			return nil, fmt.Errorf("dslscript: execute task input %q missing ':': %w", key.Text, err)
		}
		values, err := parseInputValue(s)
		if err != nil {
			return nil, err
		}
		inputs[key.Text] = values

		peeked, ok = s.peek()
		if ok && peeked.Text == "," {
			_, _ = s.next()
			continue
		}
		if err := expectToken(s, ")"); err != nil {
			return nil, fmt.Errorf("dslscript: execute task input list missing ')': %w", err)
		}
		break
	}
	return inputs, nil
}

func parseInputValue(s *stream) ([]string, error) {
	peeked, ok := s.peek()
	if !ok {
		return nil, fmt.Errorf("dslscript: execute task input value missing")
	}
	if peeked.Text != "[" && peeked.Text != "(" {
		v, err := s.next()
		if err != nil {
			return nil, err
		}
		return []string{v.Text}, nil
	}
	open := peeked.Text
	close := "]"
	if open == "(" {
		close = ")"
	}
	_, _ = s.next()
	var values []string
	for {
		peeked, ok := s.peek()
		if ok && peeked.Text == close {
			_, _ = s.next()
			break
		}
		v, err := s.next()
		if err != nil {
			return nil, fmt.Errorf("dslscript: unterminated list value: %w", err)
		}
		values = append(values, v.Text)
		peeked, ok = s.peek()
		if ok && peeked.Text == "," {
			_, _ = s.next()
		}
	}
	return values, nil
}

func parsePrint(s *stream) (Statement, error) {
	mode, err := s.next()
	if err != nil {
		return Statement{}, fmt.Errorf("dslscript: usage: print <raw|pretty> <name> [limit <n>]: %w", err)
	}
	raw := strings.EqualFold(mode.Text, "raw")
	if !raw && !strings.EqualFold(mode.Text, "pretty") {
		return Statement{}, fmt.Errorf("dslscript: usage: print <raw|pretty> <name> [limit <n>], got %q", mode.Text)
	}
	name, err := s.next()
	if err != nil {
		return Statement{}, fmt.Errorf("dslscript: print requires a dataset name: %w", err)
	}
	stmt := &PrintStatement{DatasetName: name.Text, Raw: raw, Limit: -1}

	if tok, ok := s.peek(); ok && strings.EqualFold(tok.Text, "limit") {
		_, _ = s.next()
		limit, err := s.nextInt()
		if err != nil {
			return Statement{}, err
		}
		stmt.Limit = limit
	}
	return Statement{Print: stmt}, nil
}

func parseHelp(s *stream) (Statement, error) {
	if !s.hasNext() {
		return Statement{Help: &HelpStatement{}}, nil
	}
	topic, _ := s.next()
	return Statement{Help: &HelpStatement{Topic: topic.Text}}, nil
}
