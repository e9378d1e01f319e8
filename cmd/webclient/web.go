//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/marben/chaos_ifs/stream"
)

// tabs is the fractal selector, one button per catalog entry.
type tabs struct {
	buttons map[string]js.Value
	funcs   []js.Func
}

func newTabs(id string, infos []stream.FractalInfo, onClick func(id string)) *tabs {
	doc := js.Global().Get("document")
	nav := doc.Call("getElementById", id)
	nav.Set("innerHTML", "")

	t := &tabs{buttons: make(map[string]js.Value, len(infos))}
	for _, info := range infos {
		btn := doc.Call("createElement", "button")
		btn.Set("textContent", info.Name)
		btn.Set("title", info.Description)

		fractalID := info.ID
		fn := js.FuncOf(func(js.Value, []js.Value) any {
			onClick(fractalID)
			return nil
		})
		btn.Call("addEventListener", "click", fn)
		t.funcs = append(t.funcs, fn)

		nav.Call("appendChild", btn)
		t.buttons[info.ID] = btn
	}
	return t
}

// highlight marks the button of id as active.
func (t *tabs) highlight(id string) {
	for bid, btn := range t.buttons {
		btn.Get("classList").Call("toggle", "active", bid == id)
	}
}

// showInfo fills the info panel with the presentation text of a fractal.
func showInfo(info stream.FractalInfo) {
	doc := js.Global().Get("document")
	doc.Call("getElementById", "name").Set("textContent", info.Name)
	doc.Call("getElementById", "description").Set("textContent", info.Description)

	list := doc.Call("getElementById", "formulas")
	list.Set("innerHTML", "")
	for _, f := range info.Formulas {
		li := doc.Call("createElement", "li")
		li.Set("textContent", f)
		list.Call("appendChild", li)
	}
	doc.Set("title", info.Name+" · chaos game")
}
