package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "classify_text",
		Description: "Classify a message as scam or safe without starting a conversation",
	}, NewClassifyHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name: "submit_message",
		Description: "Send a message to the current chat room and get the assistant's reply. " +
			"The first message of a room is the text that gets judged",
	}, NewSubmitHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "new_room",
		Description: "Open a new chat room and make it current. Use one room per suspicious text",
	}, NewNewRoomHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_room",
		Description: "Switch to a chat room by index. Retries a pending reply in that room",
	}, NewSelectRoomHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_room",
		Description: "Clear the current chat room back to the greeting",
	}, NewClearRoomHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_rooms",
		Description: "List chat rooms with their turn counts",
	}, NewListRoomsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_stats",
		Description: "Show classifier and responder timing statistics",
	}, NewStatsHandler(deps))
}
