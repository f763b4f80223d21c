package server

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/areaattack/model"
)

//go:embed fields/*.txt
var embeddedFields embed.FS

// ShapePool is read-only once loaded and shared by all sessions.
type ShapePool struct {
	shapes []*Shape
	byName map[string]*Shape
}

// LoadShapes reads the built-in field templates and, when dir is set, every
// *.txt template in dir. A file in dir replaces a built-in of the same name.
func LoadShapes(dir string) (*ShapePool, error) {
	pool := &ShapePool{byName: make(map[string]*Shape)}
	if err := pool.loadFrom(embeddedFields, "fields"); err != nil {
		return nil, err
	}
	if dir != "" {
		if err := pool.loadFrom(os.DirFS(dir), "."); err != nil {
			return nil, err
		}
	}
	if len(pool.shapes) == 0 {
		return nil, ErrNoShapes
	}
	return pool, nil
}

func NewShapePool(shapes ...*Shape) *ShapePool {
	pool := &ShapePool{byName: make(map[string]*Shape)}
	for _, s := range shapes {
		pool.add(s)
	}
	return pool
}

func (p *ShapePool) loadFrom(fsys fs.FS, dir string) error {
	names, err := fs.Glob(fsys, path.Join(dir, "*.txt"))
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		file, err := fsys.Open(name)
		if err != nil {
			return fmt.Errorf("failed opening %s: %w", name, err)
		}
		shape, err := ParseShape(strings.TrimSuffix(path.Base(name), ".txt"), file)
		file.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		log.WithFields(log.Fields{"shape": shape.Name, "cells": len(shape.Cells)}).Debug("field loaded")
		p.add(shape)
	}
	return nil
}

func (p *ShapePool) add(s *Shape) {
	if _, ok := p.byName[s.Name]; ok {
		for i, old := range p.shapes {
			if old.Name == s.Name {
				p.shapes[i] = s
			}
		}
	} else {
		p.shapes = append(p.shapes, s)
	}
	p.byName[s.Name] = s
}

func (p *ShapePool) Names() []string {
	names := make([]string, 0, len(p.shapes))
	for _, s := range p.shapes {
		names = append(names, s.Name)
	}
	return names
}

func (p *ShapePool) Get(name string) (*Shape, error) {
	s, ok := p.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShape, name)
	}
	return s, nil
}

func (p *ShapePool) Random(rng *rand.Rand) (*Shape, error) {
	if len(p.shapes) == 0 {
		return nil, ErrNoShapes
	}
	return p.shapes[rng.Intn(len(p.shapes))], nil
}

// ParseShape reads a text template: '#' marks a playable cell, anything else
// is a hole. Lines starting with ';' are comments. Row i of the text is y=i.
func ParseShape(name string, reader io.Reader) (*Shape, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanLines)
	shape := &Shape{Name: name}
	row := 0
	for scanner.Scan() {
		s := scanner.Text()
		if strings.HasPrefix(s, ";") {
			continue
		}
		for col, char := range []rune(s) {
			if char == '#' {
				shape.Cells = append(shape.Cells, model.Position{X: col, Y: row})
			}
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(shape.Cells) == 0 {
		return nil, ErrEmptyShape
	}
	return shape, nil
}

// RectShape is a full width x height field.
func RectShape(name string, width, height int) *Shape {
	shape := &Shape{Name: name}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			shape.Cells = append(shape.Cells, model.Position{X: x, Y: y})
		}
	}
	return shape
}
