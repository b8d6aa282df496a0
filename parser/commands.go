package parser

import (
	"github.com/migadu/sievecore/ast"
	"github.com/migadu/sievecore/consts"
	"github.com/migadu/sievecore/lexer"
)

// parseCommandList parses commands until '}' (block) or EOF (top
// level), recovering from individual statement errors so the parser
// keeps accumulating diagnostics (§4.1: "the parser accumulates
// messages").
func (p *Parser) parseCommandList(script *ast.Script, out *[]ast.Command, topLevel bool) {
	for {
		if topLevel {
			if p.tok.Kind == lexer.EOF {
				return
			}
		} else if p.tok.Kind == lexer.RBrace {
			p.advance()
			return
		}
		if p.tok.Kind == lexer.EOF {
			p.errorf(p.tok.Line, "unexpected end of script, expected '}'")
			return
		}
		cmd := p.parseOneCommand(script)
		if cmd != nil {
			*out = append(*out, cmd)
		}
	}
}

func (p *Parser) parseOneCommand(script *ast.Script) (cmd ast.Command) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseAbort); ok {
				p.recoverTo()
				cmd = nil
				return
			}
			panic(r)
		}
	}()

	line := p.tok.Line
	if p.tok.Kind != lexer.Identifier {
		p.errorf(line, "expected command, found %s", p.tok.Kind)
		panic(parseAbort{})
	}
	name := p.tok.Text

	if name == "require" {
		p.errorf(line, "require must appear before any other command")
		p.parseOneRequire(script)
		return nil
	}
	p.sawCmd = true
	p.advance()

	switch name {
	case "stop":
		p.expect(lexer.Semicolon)
		return ast.Stop{base: ast.NewBase(line)}
	case "keep":
		p.parseTags() // accepts/ignores :flags per RFC 5232 extension
		p.expect(lexer.Semicolon)
		return ast.Keep{base: ast.NewBase(line)}
	case "discard":
		p.expect(lexer.Semicolon)
		return ast.Discard{base: ast.NewBase(line)}
	case "reject":
		p.needExtension(line, "reject", "reject")
		msg := p.parseString()
		p.expect(lexer.Semicolon)
		return ast.Reject{base: ast.NewBase(line), Message: msg}
	case "fileinto":
		p.needExtension(line, "fileinto", "fileinto")
		ts := p.parseTags()
		mailbox := p.parseString()
		p.expect(lexer.Semicolon)
		if err := validateMailbox(mailbox); err != nil {
			p.errorf(line, "fileinto: %v", err)
		}
		return ast.FileInto{base: ast.NewBase(line), Copy: ts.copy, Mailbox: mailbox, ImapFlags: ts.flags}
	case "redirect":
		ts := p.parseTags()
		addr := p.parseString()
		p.expect(lexer.Semicolon)
		if err := validateAddress(addr); err != nil {
			p.errorf(line, "redirect: %v", err)
		}
		return ast.Redirect{base: ast.NewBase(line), Copy: ts.copy, Address: addr}
	case "mark":
		p.expect(lexer.Semicolon)
		return ast.Mark{base: ast.NewBase(line)}
	case "unmark":
		p.expect(lexer.Semicolon)
		return ast.Unmark{base: ast.NewBase(line)}
	case "addflag":
		p.needExtension(line, "imapflags", "addflag")
		flags := p.parseStringListArg()
		p.expect(lexer.Semicolon)
		p.validateFlags(line, flags)
		return ast.AddFlag{base: ast.NewBase(line), Flags: flags}
	case "setflag":
		p.needExtension(line, "imapflags", "setflag")
		flags := p.parseStringListArg()
		p.expect(lexer.Semicolon)
		p.validateFlags(line, flags)
		return ast.SetFlag{base: ast.NewBase(line), Flags: flags}
	case "removeflag":
		p.needExtension(line, "imapflags", "removeflag")
		flags := p.parseStringListArg()
		p.expect(lexer.Semicolon)
		p.validateFlags(line, flags)
		return ast.RemoveFlag{base: ast.NewBase(line), Flags: flags}
	case "notify":
		p.needExtension(line, "notify", "notify")
		return p.parseNotify(line)
	case "denotify":
		p.needExtension(line, "notify", "denotify")
		return p.parseDenotify(line)
	case "vacation":
		p.needExtension(line, "vacation", "vacation")
		return p.parseVacation(line)
	case "include":
		p.needExtension(line, "include", "include")
		return p.parseInclude(line)
	case "return":
		p.expect(lexer.Semicolon)
		return ast.Return{base: ast.NewBase(line)}
	case "if":
		return p.parseIf(line)
	default:
		p.errorf(line, "unknown command %q", name)
		panic(parseAbort{})
	}
}

func (p *Parser) validateFlags(line int, flags []string) {
	for _, f := range flags {
		if err := validateFlagKeyword(f); err != nil {
			p.errorf(line, "%v", err)
		}
	}
}

func (p *Parser) parseNotify(line int) ast.Command {
	ts := p.parseTags()
	message := p.parseString()
	p.expect(lexer.Semicolon)
	priority := ast.PriorityNormal
	if ts.hasPriority {
		priority = ts.priority
	}
	method := ts.method
	return ast.Notify{
		base: ast.NewBase(line), Method: method, ID: ts.id, HasID: ts.hasID,
		Options: ts.options, Priority: priority, Message: message,
	}
}

func (p *Parser) parseDenotify(line int) ast.Command {
	ts := p.parseTags()
	d := ast.Denotify{base: ast.NewBase(line), Priority: ast.PriorityAny}
	if ts.hasPriority {
		d.Priority = ts.priority
	}
	if ts.hasMatch {
		d.Match = ts.match
		d.Relation = ts.relation
	}
	p.expect(lexer.Semicolon)
	return d
}

func (p *Parser) parseVacation(line int) ast.Command {
	ts := p.parseTags()
	message := p.parseString()
	p.expect(lexer.Semicolon)

	days := int64(consts.VacationDefaultDays)
	if ts.hasDays {
		days = ts.days
	}
	if days < p.opts.VacationMinDays {
		days = p.opts.VacationMinDays
	}
	if days > p.opts.VacationMaxDays {
		days = p.opts.VacationMaxDays
	}

	if ts.hasFrom {
		if err := validateAddress(ts.from); err != nil {
			p.errorf(line, "vacation :from: %v", err)
		}
	}
	for _, a := range ts.addresses {
		if err := validateAddress(a); err != nil {
			p.errorf(line, "vacation :addresses: %v", err)
		}
	}
	if ts.hasHandle {
		if err := validateUTF8(ts.handle); err != nil {
			p.errorf(line, "vacation :handle: %v", err)
		}
	}
	if err := validateUTF8(message); err != nil {
		p.errorf(line, "vacation message: %v", err)
	}

	return ast.Vacation{
		base: ast.NewBase(line), Addresses: ts.addresses, Subject: ts.subject,
		HasSubject: ts.hasSubject, Message: message, Days: days, Mime: ts.mime,
		From: ts.from, HasFrom: ts.hasFrom, Handle: ts.handle, HasHandle: ts.hasHandle,
	}
}

func (p *Parser) parseInclude(line int) ast.Command {
	ts := p.parseTags()
	path := p.parseString()
	p.expect(lexer.Semicolon)
	loc := ast.IncludePersonal
	if ts.hasLocation {
		loc = ts.location
	}
	return ast.Include{base: ast.NewBase(line), Location: loc, Path: path}
}

func (p *Parser) parseIf(line int) ast.Command {
	test := p.parseTest()
	p.expect(lexer.LBrace)
	var then []ast.Command
	p.parseCommandList(nil, &then, false)

	node := ast.If{base: ast.NewBase(line), Test: test, Then: then}

	if p.atIdent("elsif") {
		elsifLine := p.tok.Line
		p.advance() // consume "elsif"; it desugars to a nested if/else
		nested := p.parseIf(elsifLine)
		node.Else = []ast.Command{nested}
		return node
	}
	if p.atIdent("else") {
		p.advance()
		p.expect(lexer.LBrace)
		var els []ast.Command
		p.parseCommandList(nil, &els, false)
		node.Else = els
	}
	return node
}
