package shindan_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/shindan"
	"github.com/aretw0/shindan/pkg/catalog"
	"github.com/aretw0/shindan/pkg/dsl"
)

// ExampleNew walks the shipped diagnostic to the web development result.
func ExampleNew() {
	eng, err := shindan.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	current := eng.Entry()
	for _, answer := range []int{1, 3} {
		current, err = eng.Advance(ctx, current, answer)
		if err != nil {
			log.Fatal(err)
		}
	}

	r, _ := eng.Tree().Result(current)
	fmt.Println(current, eng.IsTerminal(current))
	fmt.Println(r.RecommendedServices)
	// Output:
	// r-web true
	// [web-development]
}

// ExampleWithLoader serves a tree built with the Go DSL.
func ExampleWithLoader() {
	b := dsl.New()
	b.Question("start").
		Text("Need a website?").
		Answer("Yes", "r-web").
		Answer("No", "r-later")
	b.Result("r-web").Title("Web development").Recommend("web-development")
	b.Result("r-later").Title("Come back later").Recommend("it-strategy")

	loader, err := b.Loader("start")
	if err != nil {
		log.Fatal(err)
	}

	eng, err := shindan.New(shindan.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	next, err := eng.Advance(context.Background(), "start", 0)
	if err != nil {
		log.Fatal(err)
	}
	r, _ := eng.Tree().Result(next)
	fmt.Println(r.Title)
	fmt.Println(catalog.ContactLink(r))
	fmt.Println(len(eng.Validate()))
	// Output:
	// Web development
	// /contact/
	// 0
}
