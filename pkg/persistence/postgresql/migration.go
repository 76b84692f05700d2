package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE flowstates (
				name VARCHAR(128) PRIMARY KEY,
				document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_flowstates_updated_at ON flowstates(updated_at);
		`,
	}
}
