package parser

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Home.xml Parser
// ============================================================

// idNamespace: пространство имён UUIDv5 для сущностей без id
var idNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("sh3d-importer/entity"))

type parser struct {
	dec      *xml.Decoder
	doc      *models.Document
	warnings []models.Warning
	ordinals map[string]int
}

// Parse читает Home.xml потоком: корень <home>, затем элементы верхнего
// уровня по одному. Ошибки схемы превращаются в предупреждения, сущность
// отбрасывается. Фатальны только битый XML, неверный корень, ошибки уровней
// и отмена контекста.
func Parse(ctx context.Context, r io.Reader) (*models.Document, []models.Warning, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	p := &parser{dec: dec, doc: &models.Document{}, ordinals: make(map[string]int)}

	root, err := p.findRoot()
	if err != nil {
		return nil, nil, err
	}
	p.parseHomeAttrs(root)

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, models.Cancelled(models.StageParse, err)
		}

		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil, models.Fatal(models.KindDocumentMalformed, models.StageParse, err, "unexpected end of document: <home> is not closed")
			}
			return nil, nil, wrapXMLError(err, "parse home")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := dec.InputPos()
			n, err := readNode(dec, t, line)
			if err != nil {
				return nil, nil, wrapXMLError(err, fmt.Sprintf("parse <%s>", t.Name.Local))
			}
			if err := p.topLevel(n); err != nil {
				return nil, nil, err
			}
		case xml.EndElement:
			return p.doc, p.warnings, nil
		}
	}
}

// findRoot пропускает пролог и проверяет, что корень, <home>
func (p *parser) findRoot() (*node, error) {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, models.Fatal(models.KindDocumentMalformed, models.StageParse, err, "empty document: missing <home> root")
			}
			return nil, wrapXMLError(err, "parse home")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "home" {
			return nil, models.Fatal(models.KindDocumentMalformed, models.StageParse, nil,
				"expected <home> root, got <%s>", start.Name.Local)
		}
		line, _ := p.dec.InputPos()
		return &node{name: start.Name.Local, attrs: start.Attr, line: line}, nil
	}
}

// readNode читает поддерево элемента целиком
func readNode(dec *xml.Decoder, start xml.StartElement, line int) (*node, error) {
	n := &node{name: start.Name.Local, attrs: start.Attr, line: line}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			childLine, _ := dec.InputPos()
			child, err := readNode(dec, t, childLine)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			n.text = text.String()
			return n, nil
		}
	}
}

func wrapXMLError(err error, context string) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return models.Fatal(models.KindDocumentMalformed, models.StageParse, err, "%s (line %d)", context, se.Line)
	}
	return models.Fatal(models.KindDocumentMalformed, models.StageParse, err, "%s", context)
}

// ============================================================
// Dispatch
// ============================================================

func (p *parser) topLevel(n *node) error {
	switch n.name {
	case "property":
		if prop, ok := p.parseProperty(n); ok {
			p.doc.Properties = append(p.doc.Properties, prop)
		}
	case "furnitureVisibleProperty", "textStyle":
		// только для отображения в редакторе
	case "environment":
		p.doc.Environment = p.parseEnvironment(n)
	case "backgroundImage":
		p.doc.BackgroundImage = p.passthrough(n)
	case "print":
		p.doc.Print = p.passthrough(n)
	case "compass":
		p.doc.Compass = p.parseCompass(n)
	case "observerCamera", "camera":
		if cam := p.parseCamera(n); cam != nil {
			p.doc.Cameras = append(p.doc.Cameras, cam)
		}
	case "level":
		lvl, err := p.parseLevel(n)
		if err != nil {
			return err
		}
		p.doc.Levels = append(p.doc.Levels, lvl)
	case "pieceOfFurniture", "doorOrWindow", "light", "shelfUnit", "furnitureGroup":
		if f := p.parseFurniture(n); f != nil {
			p.doc.Furniture = append(p.doc.Furniture, f)
		}
	case "wall":
		if w := p.parseWall(n); w != nil {
			p.doc.Walls = append(p.doc.Walls, w)
		}
	case "room":
		if r := p.parseRoom(n); r != nil {
			p.doc.Rooms = append(p.doc.Rooms, r)
		}
	case "polyline":
		if pl := p.parsePolyline(n); pl != nil {
			p.doc.Polylines = append(p.doc.Polylines, pl)
		}
	case "dimensionLine":
		if d := p.parseDimensionLine(n); d != nil {
			p.doc.DimensionLines = append(p.doc.DimensionLines, d)
		}
	case "label":
		if l := p.parseLabel(n); l != nil {
			p.doc.Labels = append(p.doc.Labels, l)
		}
	default:
		p.unknownElement(n, "home")
	}
	return nil
}

// ============================================================
// Warnings & IDs
// ============================================================

func (p *parser) warn(code models.WarningCode, n *node, id, format string, args ...any) {
	p.warnings = append(p.warnings, models.Warning{
		Stage:    models.StageParse,
		Code:     code,
		Element:  n.name,
		EntityID: id,
		Line:     n.line,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (p *parser) unknownElement(n *node, parent string) {
	p.warn(models.WarnUnknownElement, n, "", "unknown element <%s> in <%s> skipped", n.name, parent)
}

// reject переводит ошибки схемы в предупреждения; true, сущность отбрасывается.
// У принятой сущности сообщаются неизвестные атрибуты.
func (p *parser) reject(a *attrs, n *node, id string) bool {
	if a.failed() {
		for _, se := range a.errs {
			p.warn(se.Code(), n, id, "%s; element dropped", se.Error())
		}
		return true
	}
	for _, name := range a.unknown() {
		p.warn(models.WarnUnknownAttribute, n, id, "unknown attribute %q ignored", name)
	}
	return false
}

// entityID возвращает id из документа или детерминированный UUIDv5
// по виду элемента и его порядковому номеру
func (p *parser) entityID(a *attrs) string {
	ordinal := p.ordinals[a.elem]
	p.ordinals[a.elem] = ordinal + 1
	if id := a.str("id", ""); id != "" {
		return id
	}
	return uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%s#%d", a.elem, ordinal))).String()
}

func levelRef(a *attrs) models.LevelRef {
	id := a.str("level", "")
	if id == "" {
		return models.LevelRef{}
	}
	return models.LevelRef{ID: id, State: models.RefPending}
}

func wallRef(a *attrs, name string) models.WallRef {
	id := a.str(name, "")
	if id == "" {
		return models.WallRef{}
	}
	return models.WallRef{ID: id, State: models.RefPending}
}
