package dispatch

import (
	"context"

	"github.com/planvault/planvault/internal/domain/document"
	"github.com/planvault/planvault/internal/domain/identity"
	"github.com/planvault/planvault/internal/domain/item"
	"github.com/planvault/planvault/internal/domain/tag"
	"github.com/planvault/planvault/internal/port/database"
	"github.com/planvault/planvault/internal/port/extractor"
	"github.com/planvault/planvault/internal/schema"
)

// Deps are the collaborators the operation bodies run against.
type Deps struct {
	Store     database.Store
	Extractor extractor.Extractor
}

// ExtractAndSaveResult is the data payload of extract_and_save_document.
type ExtractAndSaveResult struct {
	DocumentID         string `json:"document_id"`
	ItemsPersisted     int    `json:"items_persisted"`
	CitationsPersisted int    `json:"citations_persisted"`
}

// ItemPage is the data payload of list_items.
type ItemPage struct {
	Items  []item.Item `json:"items"`
	Count  int         `json:"count"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// DocumentPage is the data payload of list_documents.
type DocumentPage struct {
	Documents []document.Document `json:"documents"`
	Count     int                 `json:"count"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

// RegisterOperations attaches every operation body to the dispatcher.
func RegisterOperations(d *Dispatcher, deps Deps) {
	d.Register(OpExtractAndSaveDocument, deps.extractAndSaveDocument)
	d.Register(OpCreateItem, deps.createItem)
	d.Register(OpUpdateItem, deps.updateItem)
	d.Register(OpDeleteItem, deps.deleteItem)
	d.Register(OpGetItem, deps.getItem)
	d.Register(OpListItems, deps.listItems)
	d.Register(OpAddItemInfo, deps.addItemInfo)
	d.Register(OpCreateDocumentation, deps.createDocumentation)
	d.Register(OpGetDocumentation, deps.getDocumentation)
	d.Register(OpCreateTag, deps.createTag)
	d.Register(OpTagItem, deps.tagItem)
	d.Register(OpTagDocument, deps.tagDocument)
	d.Register(OpUntagItem, deps.untagItem)
	d.Register(OpSearchByTag, deps.searchByTag)
	d.Register(OpGetDocument, deps.getDocument)
	d.Register(OpListDocuments, deps.listDocuments)
	d.Register(OpListTags, deps.listTags)
}

// extractAndSaveDocument calls the extraction service, then persists the
// document and its items in one transaction. Extraction failure means no
// store contact at all; a failed item insert rolls the document back, so a
// half-saved document is never visible.
func (d Deps) extractAndSaveDocument(ctx context.Context, args schema.Args, id identity.Identity) (any, error) {
	cand, err := d.Extractor.Extract(ctx, args.String("text"))
	if err != nil {
		return nil, err
	}

	req := candidateToCreateRequest(cand, id.Handle)
	doc, err := d.Store.CreateDocumentWithItems(ctx, req)
	if err != nil {
		return nil, err
	}

	return ExtractAndSaveResult{
		DocumentID:         doc.ID,
		ItemsPersisted:     len(doc.Items),
		CitationsPersisted: len(cand.Citations),
	}, nil
}

func candidateToCreateRequest(cand *extractor.Candidate, createdBy string) document.CreateRequest {
	citations := make([]document.Citation, len(cand.Citations))
	for i, c := range cand.Citations {
		citations[i] = document.Citation{Source: c.Source, Note: c.Note}
	}

	items := make([]item.CreateRequest, len(cand.Items))
	for i, ci := range cand.Items {
		// The adapter has already validated the candidate shape; an
		// omitted status takes the declared default.
		status := item.Status(ci.Status)
		if status == "" {
			status = item.StatusPending
		}
		items[i] = item.CreateRequest{
			Order:       ci.Order,
			Description: ci.Description,
			TargetPath:  ci.TargetPath,
			PatternRef:  ci.PatternRef,
			Pseudocode:  ci.Pseudocode,
			Status:      status,
		}
	}

	return document.CreateRequest{
		Name:            cand.Name,
		Description:     cand.Description,
		Goal:            cand.Goal,
		Rationale:       cand.Rationale,
		Body:            cand.Body,
		SuccessCriteria: cand.SuccessCriteria,
		Context: document.ContextBlock{
			Category:    "general",
			Citations:   citations,
			ProjectTree: cand.ProjectTree,
			FileTree:    cand.FileTree,
			Caveats:     cand.Caveats,
		},
		Items:     items,
		CreatedBy: createdBy,
	}
}

func (d Deps) createItem(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	return d.Store.CreateItem(ctx, item.CreateRequest{
		DocumentID:  args.String("document_id"),
		Order:       args.Int("order"),
		Description: args.String("description"),
		TargetPath:  args.String("target_path"),
		PatternRef:  args.String("pattern_ref"),
		Pseudocode:  args.String("pseudocode"),
		Status:      item.Status(args.String("status")),
	})
}

func (d Deps) updateItem(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	req := item.UpdateRequest{
		ID:                args.String("id"),
		ExpectedUpdatedAt: args.Time("updated_at"),
	}
	if args.Has("order") {
		n := args.Int("order")
		req.Order = &n
	}
	if args.Has("description") {
		s := args.String("description")
		req.Description = &s
	}
	if args.Has("target_path") {
		s := args.String("target_path")
		req.TargetPath = &s
	}
	if args.Has("pattern_ref") {
		s := args.String("pattern_ref")
		req.PatternRef = &s
	}
	if args.Has("pseudocode") {
		s := args.String("pseudocode")
		req.Pseudocode = &s
	}
	if args.Has("status") {
		st := item.Status(args.String("status"))
		req.Status = &st
	}
	return d.Store.UpdateItem(ctx, req)
}

func (d Deps) deleteItem(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	id := args.String("id")
	if err := d.Store.SoftDeleteItem(ctx, id); err != nil {
		return nil, err
	}
	return map[string]any{"id": id, "deleted": true}, nil
}

func (d Deps) getItem(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	return d.Store.GetItem(ctx, args.String("id"))
}

func (d Deps) listItems(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	f := item.Filter{
		DocumentID:     args.String("document_id"),
		Status:         item.Status(args.String("status")),
		Tag:            args.String("tag"),
		Query:          args.String("query"),
		CreatedAfter:   args.Time("created_after"),
		CreatedBefore:  args.Time("created_before"),
		IncludeDeleted: args.Bool("include_deleted"),
		Limit:          args.Int("limit"),
		Offset:         args.Int("offset"),
	}
	items, err := d.Store.ListItems(ctx, f)
	if err != nil {
		return nil, err
	}
	return ItemPage{Items: items, Count: len(items), Limit: f.Limit, Offset: f.Offset}, nil
}

func (d Deps) addItemInfo(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	return d.Store.MergeItemInfo(ctx, args.String("id"), args.Bag("info"))
}

func (d Deps) createDocumentation(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	block := document.ContextBlock{
		DocumentID:  args.String("document_id"),
		Category:    args.String("category"),
		ProjectTree: args.String("project_tree"),
		FileTree:    args.String("file_tree"),
		Caveats:     args.String("caveats"),
	}
	for _, c := range args.ObjectList("citations") {
		source, _ := c["source"].(string)
		note, _ := c["note"].(string)
		block.Citations = append(block.Citations, document.Citation{Source: source, Note: note})
	}
	return d.Store.UpsertContext(ctx, block)
}

func (d Deps) getDocumentation(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	return d.Store.GetContext(ctx, args.String("document_id"), args.String("category"))
}

func (d Deps) createTag(ctx context.Context, args schema.Args, id identity.Identity) (any, error) {
	return d.Store.CreateTag(ctx, tag.CreateRequest{
		Name:        args.String("name"),
		Description: args.String("description"),
		Color:       args.String("color"),
		CreatedBy:   id.Handle,
	})
}

func (d Deps) tagItem(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	itemID := args.String("item_id")
	ref := args.String("tag")
	if err := d.Store.TagItem(ctx, itemID, ref); err != nil {
		return nil, err
	}
	return map[string]any{"item_id": itemID, "tag": ref, "tagged": true}, nil
}

func (d Deps) untagItem(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	itemID := args.String("item_id")
	ref := args.String("tag")
	if err := d.Store.UntagItem(ctx, itemID, ref); err != nil {
		return nil, err
	}
	return map[string]any{"item_id": itemID, "tag": ref, "tagged": false}, nil
}

func (d Deps) tagDocument(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	docID := args.String("document_id")
	ref := args.String("tag")
	if err := d.Store.TagDocument(ctx, docID, ref); err != nil {
		return nil, err
	}
	return map[string]any{"document_id": docID, "tag": ref, "tagged": true}, nil
}

func (d Deps) searchByTag(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	return d.Store.SearchByTag(ctx, args.String("tag"))
}

func (d Deps) getDocument(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	return d.Store.GetDocument(ctx, args.String("document_id"))
}

func (d Deps) listDocuments(ctx context.Context, args schema.Args, _ identity.Identity) (any, error) {
	page := document.Page{Limit: args.Int("limit"), Offset: args.Int("offset")}
	docs, err := d.Store.ListDocuments(ctx, page)
	if err != nil {
		return nil, err
	}
	return DocumentPage{Documents: docs, Count: len(docs), Limit: page.Limit, Offset: page.Offset}, nil
}

func (d Deps) listTags(ctx context.Context, _ schema.Args, _ identity.Identity) (any, error) {
	return d.Store.ListTags(ctx)
}
