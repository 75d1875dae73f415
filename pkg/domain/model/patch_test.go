package model_test

import (
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/docufy-dev/docufy/pkg/domain/model"
)

func newTestDoc(texts ...string) *model.Doc {
	doc := model.NewDoc()
	for _, text := range texts {
		doc.Content = append(doc.Content, model.NewTextBlock("paragraph", text))
	}
	return doc
}

func TestApplyBlockOps_ReplaceText(t *testing.T) {
	doc := newTestDoc("first", "second")
	target := doc.Content[0].BlockID()

	results := model.ApplyBlockOps(doc, []model.BlockOp{
		{Kind: model.BlockOpReplaceText, BlockID: target, Text: "rewritten"},
	})

	gt.Array(t, results).Length(1).Required()
	gt.Bool(t, results[0].Applied).True()
	gt.Value(t, results[0].Error).Equal("")
	gt.Value(t, doc.Content[0].PlainText()).Equal("rewritten")
	gt.Value(t, doc.Content[0].BlockID()).Equal(target)
}

func TestApplyBlockOps_UntouchedSiblingsUnchanged(t *testing.T) {
	doc := newTestDoc("keep me", "replace me", "keep me too")
	doc.Content[0].Content[0].Marks = []*model.Mark{{Type: "bold"}}

	before0, err := json.Marshal(doc.Content[0])
	gt.NoError(t, err).Required()
	before2, err := json.Marshal(doc.Content[2])
	gt.NoError(t, err).Required()

	results := model.ApplyBlockOps(doc, []model.BlockOp{
		{BlockID: doc.Content[1].BlockID(), Text: "changed"},
	})
	gt.Bool(t, results[0].Applied).True()

	after0, err := json.Marshal(doc.Content[0])
	gt.NoError(t, err).Required()
	after2, err := json.Marshal(doc.Content[2])
	gt.NoError(t, err).Required()

	gt.Value(t, string(after0)).Equal(string(before0))
	gt.Value(t, string(after2)).Equal(string(before2))
}

func TestApplyBlockOps_NormalizesCRLF(t *testing.T) {
	doc := newTestDoc("original")

	results := model.ApplyBlockOps(doc, []model.BlockOp{
		{BlockID: doc.Content[0].BlockID(), Text: "line one\r\nline two\r\nline three"},
	})

	gt.Bool(t, results[0].Applied).True()
	gt.Value(t, doc.Content[0].Content[0].Text).Equal("line one\nline two\nline three")
}

func TestApplyBlockOps_EmptyTextClearsBlock(t *testing.T) {
	doc := newTestDoc("about to vanish")
	target := doc.Content[0].BlockID()

	results := model.ApplyBlockOps(doc, []model.BlockOp{
		{BlockID: target, Text: ""},
	})

	gt.Bool(t, results[0].Applied).True()
	gt.Array(t, doc.Content).Length(1)
	gt.Value(t, doc.Content[0].BlockID()).Equal(target)
	gt.Value(t, len(doc.Content[0].Content)).Equal(0)
	gt.Value(t, doc.Content[0].PlainText()).Equal("")
}

func TestApplyBlockOps_UnknownBlockIDFailsThatOpOnly(t *testing.T) {
	doc := newTestDoc("first", "second")

	results := model.ApplyBlockOps(doc, []model.BlockOp{
		{BlockID: "no-such-block", Text: "lost"},
		{BlockID: doc.Content[1].BlockID(), Text: "updated"},
	})

	gt.Array(t, results).Length(2).Required()
	gt.Bool(t, results[0].Applied).False()
	gt.Value(t, results[0].Error).Equal("block not found: no-such-block")
	gt.Bool(t, results[1].Applied).True()
	gt.Value(t, doc.Content[0].PlainText()).Equal("first")
	gt.Value(t, doc.Content[1].PlainText()).Equal("updated")
}

func TestApplyBlockOps_UnsupportedKind(t *testing.T) {
	doc := newTestDoc("content")

	results := model.ApplyBlockOps(doc, []model.BlockOp{
		{Kind: "delete_block", BlockID: doc.Content[0].BlockID()},
	})

	gt.Bool(t, results[0].Applied).False()
	gt.Value(t, results[0].Error).Equal("unsupported operation: delete_block")
	gt.Value(t, doc.Content[0].PlainText()).Equal("content")
}

func TestApplyBlockOps_NilDoc(t *testing.T) {
	results := model.ApplyBlockOps(nil, []model.BlockOp{
		{BlockID: "any", Text: "x"},
	})

	gt.Array(t, results).Length(1).Required()
	gt.Bool(t, results[0].Applied).False()
}
