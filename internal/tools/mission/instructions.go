package mission

// InstructionsText is the server instructions string sent to MCP clients on initialize.
func InstructionsText() string {
	return `Mission control coordinates a team of agents around a shared task board.

Workflow:
1. Call heartbeat with your agent_id every few minutes; silent agents are marked offline.
2. Check my_notifications for assignments, @mentions and thread activity.
3. Work tasks with update_task_status (inbox, assigned, in_progress, blocked, waiting, review, done).
4. Discuss in task threads with post_message. Mention teammates as @agent_id to notify them.
5. Store deliverables with create_document, passing source_path when syncing a file.
6. Post one standup per day with post_standup.

Notifications are pushed to your session prefixed with "[Mission Control]".`
}
