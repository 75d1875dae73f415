package tool_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	"github.com/docufy-dev/docufy/pkg/agent/tool"
)

type namedTool struct {
	name string
}

func (t *namedTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{Name: t.name, Parameters: map[string]*gollem.Parameter{}}
}

func (t *namedTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	return nil, nil
}

func TestNewRegistry(t *testing.T) {
	reg, err := tool.NewRegistry([]gollem.Tool{
		&namedTool{name: "search_pages"},
		&namedTool{name: "get_page"},
	})
	gt.NoError(t, err).Required()

	gt.Array(t, reg.Names()).Equal([]string{"search_pages", "get_page"})

	found, ok := reg.Get("get_page")
	gt.Bool(t, ok).True()
	gt.Value(t, found.Spec().Name).Equal("get_page")

	_, ok = reg.Get("unknown")
	gt.Bool(t, ok).False()
}

func TestNewRegistry_RejectsDuplicateName(t *testing.T) {
	_, err := tool.NewRegistry([]gollem.Tool{
		&namedTool{name: "get_page"},
		&namedTool{name: "get_page"},
	})
	gt.Error(t, err)
}

func TestNewRegistry_RejectsEmptyName(t *testing.T) {
	_, err := tool.NewRegistry([]gollem.Tool{&namedTool{name: ""}})
	gt.Error(t, err)
}
