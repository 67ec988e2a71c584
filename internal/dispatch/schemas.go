package dispatch

import (
	"github.com/planvault/planvault/internal/domain/item"
	"github.com/planvault/planvault/internal/policy"
	"github.com/planvault/planvault/internal/schema"
)

// Operation names accepted by the dispatcher.
const (
	OpExtractAndSaveDocument = "extract_and_save_document"
	OpCreateItem             = "create_item"
	OpUpdateItem             = "update_item"
	OpDeleteItem             = "delete_item"
	OpGetItem                = "get_item"
	OpListItems              = "list_items"
	OpAddItemInfo            = "add_item_info"
	OpCreateDocumentation    = "create_documentation"
	OpGetDocumentation       = "get_documentation"
	OpCreateTag              = "create_tag"
	OpTagItem                = "tag_item"
	OpTagDocument            = "tag_document"
	OpUntagItem              = "untag_item"
	OpSearchByTag            = "search_by_tag"
	OpGetDocument            = "get_document"
	OpListDocuments          = "list_documents"
	OpListTags               = "list_tags"
)

// Argument bounds. Text ceilings keep pathological payloads out of the
// store; the extraction input ceiling lives in the extraction adapter.
const (
	maxNameLen        = 200
	maxDescriptionLen = 10_000
	maxBodyLen        = 100_000
	maxListLen        = 100
	maxBagKeys        = 50
	defaultPageSize   = 50
	maxPageSize       = 200
	maxOffset         = 1_000_000
)

// citationObject is the element shape of a citations list.
var citationObject = []schema.Field{
	{Name: "source", Kind: schema.KindString, Required: true, MaxLen: maxNameLen * 2},
	{Name: "note", Kind: schema.KindString, MaxLen: maxDescriptionLen},
}

// Tiers declares the authorization level each operation demands.
func Tiers() map[string]policy.Tier {
	return map[string]policy.Tier{
		OpExtractAndSaveDocument: policy.TierWrite,
		OpCreateItem:             policy.TierWrite,
		OpUpdateItem:             policy.TierWrite,
		OpDeleteItem:             policy.TierWrite,
		OpAddItemInfo:            policy.TierWrite,
		OpCreateDocumentation:    policy.TierWrite,
		OpCreateTag:              policy.TierWrite,
		OpTagItem:                policy.TierWrite,
		OpTagDocument:            policy.TierWrite,
		OpUntagItem:              policy.TierWrite,

		OpGetItem:          policy.TierRead,
		OpListItems:        policy.TierRead,
		OpGetDocumentation: policy.TierRead,
		OpSearchByTag:      policy.TierRead,
		OpGetDocument:      policy.TierRead,
		OpListDocuments:    policy.TierRead,
		OpListTags:         policy.TierRead,
	}
}

// NewRegistry declares the argument shape of every operation.
func NewRegistry() *schema.Registry {
	r := schema.NewRegistry()

	r.Register(schema.Schema{
		Operation: OpExtractAndSaveDocument,
		Fields: []schema.Field{
			{Name: "text", Kind: schema.KindString, Required: true, MaxLen: maxBodyLen},
		},
	})

	r.Register(schema.Schema{
		Operation: OpCreateItem,
		Fields: []schema.Field{
			{Name: "document_id", Kind: schema.KindUUID, Required: true},
			{Name: "order", Kind: schema.KindInt, Required: true, Min: 1},
			{Name: "description", Kind: schema.KindString, Required: true, MaxLen: maxDescriptionLen},
			{Name: "target_path", Kind: schema.KindString, MaxLen: maxNameLen * 2},
			{Name: "pattern_ref", Kind: schema.KindString, MaxLen: maxNameLen * 2},
			{Name: "pseudocode", Kind: schema.KindString, MaxLen: maxBodyLen},
			{Name: "status", Kind: schema.KindEnum, Enum: item.Statuses(), Default: string(item.StatusPending)},
		},
	})

	r.Register(schema.Schema{
		Operation: OpUpdateItem,
		Fields: []schema.Field{
			{Name: "id", Kind: schema.KindUUID, Required: true},
			{Name: "updated_at", Kind: schema.KindTime, Required: true},
			{Name: "order", Kind: schema.KindInt, Min: 1},
			{Name: "description", Kind: schema.KindString, MaxLen: maxDescriptionLen},
			{Name: "target_path", Kind: schema.KindString, MaxLen: maxNameLen * 2},
			{Name: "pattern_ref", Kind: schema.KindString, MaxLen: maxNameLen * 2},
			{Name: "pseudocode", Kind: schema.KindString, MaxLen: maxBodyLen},
			{Name: "status", Kind: schema.KindEnum, Enum: item.Statuses()},
		},
		AtLeastOne: []string{"order", "description", "target_path", "pattern_ref", "pseudocode", "status"},
	})

	r.Register(schema.Schema{
		Operation: OpDeleteItem,
		Fields: []schema.Field{
			{Name: "id", Kind: schema.KindUUID, Required: true},
		},
	})

	r.Register(schema.Schema{
		Operation: OpGetItem,
		Fields: []schema.Field{
			{Name: "id", Kind: schema.KindUUID, Required: true},
		},
	})

	r.Register(schema.Schema{
		Operation: OpListItems,
		Fields: []schema.Field{
			{Name: "document_id", Kind: schema.KindUUID},
			{Name: "status", Kind: schema.KindEnum, Enum: item.Statuses()},
			{Name: "tag", Kind: schema.KindString, MaxLen: maxNameLen},
			{Name: "query", Kind: schema.KindString, MaxLen: maxNameLen * 2},
			{Name: "created_after", Kind: schema.KindTime},
			{Name: "created_before", Kind: schema.KindTime},
			{Name: "include_deleted", Kind: schema.KindBool, Default: false},
			{Name: "limit", Kind: schema.KindInt, Min: 1, Max: maxPageSize, Default: defaultPageSize},
			{Name: "offset", Kind: schema.KindInt, Min: 0, Max: maxOffset, Default: 0},
		},
	})

	r.Register(schema.Schema{
		Operation: OpAddItemInfo,
		Fields: []schema.Field{
			{Name: "id", Kind: schema.KindUUID, Required: true},
			{Name: "info", Kind: schema.KindBag, Required: true, MaxLen: maxBagKeys},
		},
	})

	r.Register(schema.Schema{
		Operation: OpCreateDocumentation,
		Fields: []schema.Field{
			{Name: "document_id", Kind: schema.KindUUID, Required: true},
			{Name: "category", Kind: schema.KindString, MaxLen: maxNameLen, Default: "general"},
			{Name: "citations", Kind: schema.KindObjectList, Object: citationObject, MaxLen: maxListLen},
			{Name: "project_tree", Kind: schema.KindString, MaxLen: maxBodyLen},
			{Name: "file_tree", Kind: schema.KindString, MaxLen: maxBodyLen},
			{Name: "caveats", Kind: schema.KindString, MaxLen: maxDescriptionLen},
		},
	})

	r.Register(schema.Schema{
		Operation: OpGetDocumentation,
		Fields: []schema.Field{
			{Name: "document_id", Kind: schema.KindUUID},
			{Name: "category", Kind: schema.KindString, MaxLen: maxNameLen},
		},
		AtLeastOne: []string{"document_id", "category"},
	})

	r.Register(schema.Schema{
		Operation: OpCreateTag,
		Fields: []schema.Field{
			{Name: "name", Kind: schema.KindString, Required: true, MaxLen: maxNameLen},
			{Name: "description", Kind: schema.KindString, MaxLen: maxDescriptionLen},
			{Name: "color", Kind: schema.KindString, MaxLen: 32},
		},
	})

	r.Register(schema.Schema{
		Operation: OpTagItem,
		Fields: []schema.Field{
			{Name: "item_id", Kind: schema.KindUUID, Required: true},
			{Name: "tag", Kind: schema.KindString, Required: true, MaxLen: maxNameLen},
		},
	})

	r.Register(schema.Schema{
		Operation: OpUntagItem,
		Fields: []schema.Field{
			{Name: "item_id", Kind: schema.KindUUID, Required: true},
			{Name: "tag", Kind: schema.KindString, Required: true, MaxLen: maxNameLen},
		},
	})

	r.Register(schema.Schema{
		Operation: OpTagDocument,
		Fields: []schema.Field{
			{Name: "document_id", Kind: schema.KindUUID, Required: true},
			{Name: "tag", Kind: schema.KindString, Required: true, MaxLen: maxNameLen},
		},
	})

	r.Register(schema.Schema{
		Operation: OpSearchByTag,
		Fields: []schema.Field{
			{Name: "tag", Kind: schema.KindString, Required: true, MaxLen: maxNameLen},
		},
	})

	r.Register(schema.Schema{
		Operation: OpGetDocument,
		Fields: []schema.Field{
			{Name: "document_id", Kind: schema.KindUUID, Required: true},
		},
	})

	r.Register(schema.Schema{
		Operation: OpListDocuments,
		Fields: []schema.Field{
			{Name: "limit", Kind: schema.KindInt, Min: 1, Max: maxPageSize, Default: defaultPageSize},
			{Name: "offset", Kind: schema.KindInt, Min: 0, Max: maxOffset, Default: 0},
		},
	})

	r.Register(schema.Schema{
		Operation: OpListTags,
		Fields:    []schema.Field{},
	})

	return r
}
