package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Future-state versions and their owned graph children
			CREATE TABLE future_state_versions (
				id UUID PRIMARY KEY,
				session_id VARCHAR(255) NOT NULL,
				parent_version_id UUID REFERENCES future_state_versions(id) ON DELETE SET NULL,
				version INT NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'published')),
				is_locked BOOLEAN NOT NULL DEFAULT FALSE,
				created_by VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				published_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_future_state_versions_session ON future_state_versions(session_id);
			CREATE INDEX idx_future_state_versions_status ON future_state_versions(status);
			CREATE UNIQUE INDEX idx_future_state_versions_session_version ON future_state_versions(session_id, version);

			CREATE TABLE future_state_nodes (
				id UUID PRIMARY KEY,
				version_id UUID NOT NULL REFERENCES future_state_versions(id) ON DELETE CASCADE,
				source_step_id VARCHAR(255),
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				lane VARCHAR(255) NOT NULL,
				node_type VARCHAR(50) NOT NULL,
				cycle_time_mins DOUBLE PRECISION,
				lead_time_mins DOUBLE PRECISION,
				position_x INT NOT NULL DEFAULT 0,
				position_y INT NOT NULL DEFAULT 0,
				action TEXT NOT NULL DEFAULT '',
				linked_solution_id VARCHAR(255),
				-- No foreign key: design versions outlive graph versions, and
				-- cloned nodes reference design versions owned by their
				-- ancestor nodes.
				active_step_design_version_id UUID,
				step_design_status VARCHAR(50) NOT NULL DEFAULT 'strategy_only'
					CHECK (step_design_status IN ('strategy_only', 'needs_step_design', 'step_design_complete')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_future_state_nodes_version ON future_state_nodes(version_id);
			CREATE INDEX idx_future_state_nodes_solution ON future_state_nodes(linked_solution_id);
			CREATE INDEX idx_future_state_nodes_version_lane ON future_state_nodes(version_id, lane);

			CREATE TABLE future_state_edges (
				id UUID PRIMARY KEY,
				version_id UUID NOT NULL REFERENCES future_state_versions(id) ON DELETE CASCADE,
				from_node_id UUID NOT NULL REFERENCES future_state_nodes(id) ON DELETE CASCADE,
				to_node_id UUID NOT NULL REFERENCES future_state_nodes(id) ON DELETE CASCADE,
				label VARCHAR(255) NOT NULL DEFAULT '',
				order_index INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_future_state_edges_version ON future_state_edges(version_id);
			CREATE INDEX idx_future_state_edges_from ON future_state_edges(from_node_id);
			CREATE INDEX idx_future_state_edges_to ON future_state_edges(to_node_id);

			CREATE TABLE future_state_lanes (
				id UUID PRIMARY KEY,
				version_id UUID NOT NULL REFERENCES future_state_versions(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				color VARCHAR(50) NOT NULL DEFAULT '',
				order_index INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_future_state_lanes_version ON future_state_lanes(version_id);
			CREATE UNIQUE INDEX idx_future_state_lanes_version_name ON future_state_lanes(version_id, name);

			CREATE TABLE future_state_annotations (
				id UUID PRIMARY KEY,
				version_id UUID NOT NULL REFERENCES future_state_versions(id) ON DELETE CASCADE,
				node_id UUID REFERENCES future_state_nodes(id) ON DELETE SET NULL,
				kind VARCHAR(50) NOT NULL CHECK (kind IN ('comment', 'flag')),
				body TEXT NOT NULL,
				position_x INT NOT NULL DEFAULT 0,
				position_y INT NOT NULL DEFAULT 0,
				created_by VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_future_state_annotations_version ON future_state_annotations(version_id);
			CREATE INDEX idx_future_state_annotations_node ON future_state_annotations(node_id);
		`,
		2: `
			-- Step contexts: one flexible context document per node.
			-- node_id is a plain column so the document survives graph
			-- version deletion.
			CREATE TABLE step_contexts (
				id UUID PRIMARY KEY,
				node_id UUID NOT NULL,
				session_id VARCHAR(255) NOT NULL,
				future_state_id UUID NOT NULL,
				context_json JSONB NOT NULL DEFAULT '{}',
				notes TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE UNIQUE INDEX idx_step_contexts_node ON step_contexts(node_id);
			CREATE INDEX idx_step_contexts_session ON step_contexts(session_id);
		`,
		3: `
			-- Step design versions with their options and assumptions
			CREATE TABLE step_design_versions (
				id UUID PRIMARY KEY,
				node_id UUID NOT NULL,
				session_id VARCHAR(255) NOT NULL,
				future_state_id UUID NOT NULL,
				version INT NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'accepted', 'archived')),
				selected_option_id UUID,
				created_by VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_step_design_versions_node ON step_design_versions(node_id);
			CREATE INDEX idx_step_design_versions_node_status ON step_design_versions(node_id, status);
			CREATE UNIQUE INDEX idx_step_design_versions_node_version ON step_design_versions(node_id, version);

			CREATE TABLE step_design_options (
				id UUID PRIMARY KEY,
				design_version_id UUID NOT NULL REFERENCES step_design_versions(id) ON DELETE CASCADE,
				title VARCHAR(255) NOT NULL,
				summary TEXT NOT NULL DEFAULT '',
				changes JSONB NOT NULL DEFAULT '[]',
				wastes_addressed JSONB NOT NULL DEFAULT '[]',
				risks JSONB NOT NULL DEFAULT '[]',
				dependencies JSONB NOT NULL DEFAULT '[]',
				patterns JSONB NOT NULL DEFAULT '[]',
				confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
				design JSONB NOT NULL DEFAULT '{}',
				research_mode_used BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_step_design_options_version ON step_design_options(design_version_id);

			CREATE TABLE design_assumptions (
				id UUID PRIMARY KEY,
				option_id UUID NOT NULL REFERENCES step_design_options(id) ON DELETE CASCADE,
				assumption TEXT NOT NULL,
				risk_if_wrong TEXT NOT NULL DEFAULT '',
				validation_method TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_design_assumptions_option ON design_assumptions(option_id);
		`,
		4: `
			-- Solution cards and as-is process steps referenced by nodes.
			-- Both originate outside this service, so ids stay opaque strings.
			CREATE TABLE solution_cards (
				id VARCHAR(255) PRIMARY KEY,
				session_id VARCHAR(255) NOT NULL,
				title VARCHAR(255) NOT NULL,
				summary TEXT NOT NULL DEFAULT '',
				step_design_status VARCHAR(50) NOT NULL DEFAULT 'strategy_only'
					CHECK (step_design_status IN ('strategy_only', 'needs_step_design', 'step_design_complete')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_solution_cards_session ON solution_cards(session_id);

			CREATE TABLE process_steps (
				id VARCHAR(255) PRIMARY KEY,
				session_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				lane VARCHAR(255) NOT NULL DEFAULT '',
				order_index INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_process_steps_session ON process_steps(session_id);
		`,
	}
}
