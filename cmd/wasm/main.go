//go:build js && wasm

package main

import (
	"context"
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/chord"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/chroma"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/diagram"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorSearch
	ErrorDetect
)

var board = fretboard.Default()

// findFingerings(chordText, firstFret, frets, root?) searches the standard
// board. Returns: {error: number, data: array | string}
func findFingerings(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected at least 3 arguments: chord, firstFret, frets")
	}
	if args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "chord must be a string")
	}
	if args[1].Type() != js.TypeNumber || args[2].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "firstFret and frets must be numbers")
	}

	w := search.Window{First: args[1].Int(), Length: args[2].Int()}
	if err := w.Validate(); err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}

	target := chord.Parse(args[0].String())
	q := search.Query{Target: target, Window: w}
	if len(args) > 3 && args[3].Type() == js.TypeString && args[3].String() != "" {
		root, err := pitch.Parse(args[3].String())
		if err != nil {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid root: %v", err))
		}
		q.Root, q.RootSet = root, true
	}

	list := js.Global().Get("Array").New()
	if len(target) == 0 {
		return makeResponse(list)
	}

	res, err := search.Find(context.Background(), board, q)
	if err != nil {
		return makeErrorResponse(ErrorSearch, err.Error())
	}

	for i, sol := range res.Solutions {
		lines := js.Global().Get("Array").New()
		for j, line := range diagram.Render(board, sol, w).Lines {
			lines.SetIndex(j, line)
		}
		frets := js.Global().Get("Array").New()
		for s, f := range sol {
			frets.SetIndex(s, f)
		}

		obj := js.Global().Get("Object").New()
		obj.Set("tab", sol.String())
		obj.Set("frets", frets)
		obj.Set("header", diagram.Header(i+1, len(res.Solutions)))
		obj.Set("diagram", lines)
		list.SetIndex(i, obj)
	}
	return makeResponse(list)
}

// detectNotes(audioArray, sampleRate, channels) estimates the pitch classes
// in a recording. Returns: {error: number, data: array | string}
func detectNotes(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 3 arguments: audioArray, sampleRate, channels")
	}

	audioDataJS := args[0]
	if audioDataJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray must be an Array or Float64Array")
	}
	if args[1].Type() != js.TypeNumber || args[2].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate and channels must be numbers")
	}

	sampleRate := args[1].Int()
	channels := args[2].Int()
	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid sample rate: %d", sampleRate))
	}
	if channels < 1 || channels > 2 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Channels must be 1 (mono) or 2 (stereo), got: %d", channels))
	}

	length := audioDataJS.Length()
	if length == 0 {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray is empty")
	}
	samples := make([]float64, length)
	for i := range samples {
		val := audioDataJS.Index(i)
		if val.Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("audioArray element %d is not a number", i))
		}
		samples[i] = val.Float()
	}
	if channels == 2 {
		samples = stereoToMono(samples)
	}

	target, err := chroma.Detect(samples, sampleRate)
	if err != nil {
		return makeErrorResponse(ErrorDetect, err.Error())
	}

	notes := js.Global().Get("Array").New()
	for i, n := range target {
		notes.SetIndex(i, n.String())
	}
	return makeResponse(notes)
}

func stereoToMono(stereo []float64) []float64 {
	mono := make([]float64, len(stereo)/2)
	for i := range mono {
		mono[i] = (stereo[2*i] + stereo[2*i+1]) / 2
	}
	return mono
}

func makeResponse(data js.Value) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	logf := func(method, msg string) {
		if !console.IsUndefined() {
			console.Call(method, msg)
		}
	}

	js.Global().Set("findFingerings", js.FuncOf(findFingerings))
	js.Global().Set("detectNotes", js.FuncOf(detectNotes))
	logf("log", "📝 findFingerings and detectNotes registered")

	if window := js.Global().Get("window"); !window.IsUndefined() {
		event := js.Global().Get("CustomEvent").New("wasmReady", js.Global().Get("Object").New())
		window.Call("dispatchEvent", event)
	} else {
		logf("error", "❌ window object is undefined!")
	}
	logf("log", "✅ FretDNA WASM module ready")

	select {}
}
