package main

import (
	"github.com/bornholm/bingsearch/internal/command"
	"github.com/bornholm/bingsearch/internal/command/news"
	"github.com/bornholm/bingsearch/internal/command/schema"
	"github.com/bornholm/bingsearch/internal/command/web"
)

var version = "dev"

func main() {
	command.Main(
		"bingsearch",
		version,
		"Query the Bing Search API for web and news results",
		web.Web(),
		news.News(),
		schema.Schema(),
	)
}
