/*
Package kanjidrill generates printable kanji stroke-order practice sheets.

The kanji found in a text are extracted line by line, optionally deduplicated
and sorted by stroke count or code point, then folded into rows fitting the
page width. Every chunk of characters is drawn twice: once with the stroke
numbers, once as a plain grey trace to write over. Stroke-order illustrations
come from KanjiVG, either downloaded or read from a local copy.

The package provides a command line interface. To check the supported flags type:

	$ kanjidrill --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/esimov/kanjidrill"
	)

	func main() {
		provider, err := kanjidrill.NewHTTPProvider(kanjidrill.DefaultSource, "", kanjidrill.DefaultTimeout, nil)
		if err != nil {
			log.Fatal(err)
		}
		p := &kanjidrill.Processor{
			Settings: kanjidrill.DefaultSettings(),
			Provider: provider,
		}
		if err := p.Process(context.Background(), os.Stdin, os.Stdout, kanjidrill.HTMLRenderer{}); err != nil {
			log.Fatalf("Error generating the sheet: %v", err)
		}
	}
*/
package kanjidrill
