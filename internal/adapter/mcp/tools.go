package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/planvault/planvault/internal/dispatch"
)

// registerTools registers every operation as an MCP tool. All argument
// validation and authorization happens in the dispatcher; the tool schemas
// here are advisory surface for clients.
func (s *Server) registerTools() {
	s.addTools(
		s.extractAndSaveDocumentTool(),
		s.createItemTool(),
		s.updateItemTool(),
		s.deleteItemTool(),
		s.getItemTool(),
		s.listItemsTool(),
		s.addItemInfoTool(),
		s.createDocumentationTool(),
		s.getDocumentationTool(),
		s.createTagTool(),
		s.tagItemTool(),
		s.tagDocumentTool(),
		s.untagItemTool(),
		s.searchByTagTool(),
		s.getDocumentTool(),
		s.listDocumentsTool(),
		s.listTagsTool(),
	)
}

// dispatchHandler routes a tool call through the dispatcher and returns
// the result envelope as JSON. A failed envelope is an error result; the
// envelope itself is always the payload.
func (s *Server) dispatchHandler(operation string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		id, _ := IdentityFrom(ctx)
		env := s.deps.Dispatcher.Dispatch(ctx, operation, req.GetArguments(), id)

		data, err := json.Marshal(env)
		if err != nil {
			return mcplib.NewToolResultErrorFromErr("failed to marshal envelope", err), nil
		}
		if !env.OK {
			return mcplib.NewToolResultError(string(data)), nil
		}
		return toolResultJSON(string(data)), nil
	}
}

func (s *Server) tool(op string, t mcplib.Tool) mcpserver.ServerTool {
	return mcpserver.ServerTool{Tool: t, Handler: s.dispatchHandler(op)}
}

func (s *Server) extractAndSaveDocumentTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpExtractAndSaveDocument, mcplib.NewTool(dispatch.OpExtractAndSaveDocument,
		mcplib.WithDescription("Parse raw markdown planning text into a structured document and save it atomically with its items"),
		mcplib.WithString("text",
			mcplib.Required(),
			mcplib.Description("The raw markdown document text"),
		),
	))
}

func (s *Server) createItemTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpCreateItem, mcplib.NewTool(dispatch.OpCreateItem,
		mcplib.WithDescription("Create one item under an existing document"),
		mcplib.WithString("document_id", mcplib.Required(), mcplib.Description("Owning document ID")),
		mcplib.WithNumber("order", mcplib.Required(), mcplib.Description("Positive sort order, unique within the document")),
		mcplib.WithString("description", mcplib.Required(), mcplib.Description("What the item covers")),
		mcplib.WithString("target_path", mcplib.Description("File or path the item touches")),
		mcplib.WithString("pattern_ref", mcplib.Description("Existing code to mirror")),
		mcplib.WithString("pseudocode", mcplib.Description("Implementation sketch")),
		mcplib.WithString("status", mcplib.Description("pending | in-progress | completed")),
	))
}

func (s *Server) updateItemTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpUpdateItem, mcplib.NewTool(dispatch.OpUpdateItem,
		mcplib.WithDescription("Update item fields; guarded by the item's last-read updated_at timestamp"),
		mcplib.WithString("id", mcplib.Required(), mcplib.Description("Item ID")),
		mcplib.WithString("updated_at", mcplib.Required(), mcplib.Description("The updated_at value last read for this item (RFC 3339)")),
		mcplib.WithNumber("order", mcplib.Description("New sort order")),
		mcplib.WithString("description", mcplib.Description("New description")),
		mcplib.WithString("target_path", mcplib.Description("New target path")),
		mcplib.WithString("pattern_ref", mcplib.Description("New pattern reference")),
		mcplib.WithString("pseudocode", mcplib.Description("New pseudocode")),
		mcplib.WithString("status", mcplib.Description("pending | in-progress | completed")),
	))
}

func (s *Server) deleteItemTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpDeleteItem, mcplib.NewTool(dispatch.OpDeleteItem,
		mcplib.WithDescription("Soft-delete an item; the record is tombstoned, never removed"),
		mcplib.WithString("id", mcplib.Required(), mcplib.Description("Item ID")),
	))
}

func (s *Server) getItemTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpGetItem, mcplib.NewTool(dispatch.OpGetItem,
		mcplib.WithDescription("Fetch one item with its tags"),
		mcplib.WithString("id", mcplib.Required(), mcplib.Description("Item ID")),
	))
}

func (s *Server) listItemsTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpListItems, mcplib.NewTool(dispatch.OpListItems,
		mcplib.WithDescription("List items with filters and pagination; tombstoned items are excluded by default"),
		mcplib.WithString("document_id", mcplib.Description("Restrict to one document")),
		mcplib.WithString("status", mcplib.Description("pending | in-progress | completed")),
		mcplib.WithString("tag", mcplib.Description("Tag ID or name the items must carry")),
		mcplib.WithString("query", mcplib.Description("Free-text match over descriptions")),
		mcplib.WithString("created_after", mcplib.Description("RFC 3339 lower bound")),
		mcplib.WithString("created_before", mcplib.Description("RFC 3339 upper bound")),
		mcplib.WithBoolean("include_deleted", mcplib.Description("Include tombstoned items")),
		mcplib.WithNumber("limit", mcplib.Description("Page size, max 200")),
		mcplib.WithNumber("offset", mcplib.Description("Page offset")),
	))
}

func (s *Server) addItemInfoTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpAddItemInfo, mcplib.NewTool(dispatch.OpAddItemInfo,
		mcplib.WithDescription("Merge keys into an item's free-form info bag; existing keys not named are preserved"),
		mcplib.WithString("id", mcplib.Required(), mcplib.Description("Item ID")),
		mcplib.WithObject("info", mcplib.Required(), mcplib.Description("String-keyed map of scalars or string arrays")),
	))
}

func (s *Server) createDocumentationTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpCreateDocumentation, mcplib.NewTool(dispatch.OpCreateDocumentation,
		mcplib.WithDescription("Create or replace a document's context block for one category"),
		mcplib.WithString("document_id", mcplib.Required(), mcplib.Description("Document ID")),
		mcplib.WithString("category", mcplib.Description("Context category, defaults to general")),
		mcplib.WithArray("citations", mcplib.Description("Reference citations: objects with source and note")),
		mcplib.WithString("project_tree", mcplib.Description("Current tree snapshot")),
		mcplib.WithString("file_tree", mcplib.Description("Desired tree snapshot")),
		mcplib.WithString("caveats", mcplib.Description("Known gotchas")),
	))
}

func (s *Server) getDocumentationTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpGetDocumentation, mcplib.NewTool(dispatch.OpGetDocumentation,
		mcplib.WithDescription("Fetch context blocks by document ID, category, or both"),
		mcplib.WithString("document_id", mcplib.Description("Document ID")),
		mcplib.WithString("category", mcplib.Description("Context category")),
	))
}

func (s *Server) createTagTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpCreateTag, mcplib.NewTool(dispatch.OpCreateTag,
		mcplib.WithDescription("Create a tag; names are unique (case-sensitive)"),
		mcplib.WithString("name", mcplib.Required(), mcplib.Description("Tag name")),
		mcplib.WithString("description", mcplib.Description("What the tag marks")),
		mcplib.WithString("color", mcplib.Description("Display color")),
	))
}

func (s *Server) tagItemTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpTagItem, mcplib.NewTool(dispatch.OpTagItem,
		mcplib.WithDescription("Associate an item with a tag"),
		mcplib.WithString("item_id", mcplib.Required(), mcplib.Description("Item ID")),
		mcplib.WithString("tag", mcplib.Required(), mcplib.Description("Tag ID or name")),
	))
}

func (s *Server) tagDocumentTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpTagDocument, mcplib.NewTool(dispatch.OpTagDocument,
		mcplib.WithDescription("Associate a document with a tag"),
		mcplib.WithString("document_id", mcplib.Required(), mcplib.Description("Document ID")),
		mcplib.WithString("tag", mcplib.Required(), mcplib.Description("Tag ID or name")),
	))
}

func (s *Server) untagItemTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpUntagItem, mcplib.NewTool(dispatch.OpUntagItem,
		mcplib.WithDescription("Remove an item/tag association"),
		mcplib.WithString("item_id", mcplib.Required(), mcplib.Description("Item ID")),
		mcplib.WithString("tag", mcplib.Required(), mcplib.Description("Tag ID or name")),
	))
}

func (s *Server) searchByTagTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpSearchByTag, mcplib.NewTool(dispatch.OpSearchByTag,
		mcplib.WithDescription("List the items and documents associated with a tag"),
		mcplib.WithString("tag", mcplib.Required(), mcplib.Description("Tag ID or name")),
	))
}

func (s *Server) getDocumentTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpGetDocument, mcplib.NewTool(dispatch.OpGetDocument,
		mcplib.WithDescription("Fetch one document with its context blocks and live items"),
		mcplib.WithString("document_id", mcplib.Required(), mcplib.Description("Document ID")),
	))
}

func (s *Server) listDocumentsTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpListDocuments, mcplib.NewTool(dispatch.OpListDocuments,
		mcplib.WithDescription("List documents, newest first"),
		mcplib.WithNumber("limit", mcplib.Description("Page size, max 200")),
		mcplib.WithNumber("offset", mcplib.Description("Page offset")),
	))
}

func (s *Server) listTagsTool() mcpserver.ServerTool {
	return s.tool(dispatch.OpListTags, mcplib.NewTool(dispatch.OpListTags,
		mcplib.WithDescription("List all tags"),
	))
}