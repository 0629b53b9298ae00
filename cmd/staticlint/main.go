/*
Package staticlint запускает multichecker проекта urlscan:

1. Стандартные анализаторы golang.org/x/tools:
  - printf, structtag, errorsas, sortslice, httpresponse, shadow, lostcancel

2. Анализаторы Staticcheck (https://staticcheck.io):
  - все SA-анализаторы
  - S1000 из набора simple

3. Сторонние анализаторы:
  - asciicheck: запрещает не-ASCII символы в идентификаторах

4. Собственный анализатор:
  - noexit: запрещает os.Exit, syscall.Exit и log.Fatal* в функции main пакета main

Запуск:

	go run ./cmd/staticlint ./...
*/
package main

import (
	"strings"

	"github.com/issafronov/urlscan/cmd/staticlint/noexit"
	"github.com/tdakkota/asciicheck"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/sortslice"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
)

// analyzers собирает набор анализаторов без повторов по имени
func analyzers() []*analysis.Analyzer {
	var result []*analysis.Analyzer
	seen := make(map[string]bool)
	add := func(a *analysis.Analyzer) {
		if seen[a.Name] {
			return
		}
		seen[a.Name] = true
		result = append(result, a)
	}

	for _, a := range []*analysis.Analyzer{
		printf.Analyzer,
		structtag.Analyzer,
		errorsas.Analyzer,
		sortslice.Analyzer,
		httpresponse.Analyzer,
		shadow.Analyzer,
		lostcancel.Analyzer,
	} {
		add(a)
	}

	for _, a := range staticcheck.Analyzers {
		if strings.HasPrefix(a.Analyzer.Name, "SA") {
			add(a.Analyzer)
		}
	}

	for _, a := range simple.Analyzers {
		if a.Analyzer.Name == "S1000" {
			add(a.Analyzer)
		}
	}

	add(asciicheck.NewAnalyzer())
	add(noexit.Analyzer)

	return result
}

func main() {
	multichecker.Main(analyzers()...)
}
