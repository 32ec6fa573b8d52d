package subdivision

import "context"

// AssignLeader は部署のリーダーを設定します。リーダーは所属社員である必要はありません。
func (s *Service) AssignLeader(ctx context.Context, subdivisionID, leaderID int64) (*Projection, error) {
	return s.mutate(ctx, subdivisionID, leaderID, func(txCtx context.Context, existing *Subdivision) error {
		if existing.LeaderID != nil && *existing.LeaderID == leaderID {
			return nil
		}
		id := leaderID
		existing.LeaderID = &id
		existing.UpdatedAt = s.clock.Now()
		_, err := s.repo.Update(txCtx, existing)
		return err
	})
}

// AddMember は社員を部署に所属させます。既に所属している場合も成功します。
func (s *Service) AddMember(ctx context.Context, subdivisionID, employeeID int64) (*Projection, error) {
	return s.mutate(ctx, subdivisionID, employeeID, func(txCtx context.Context, _ *Subdivision) error {
		return s.repo.AddMember(txCtx, subdivisionID, employeeID)
	})
}

// RemoveMember は社員を部署から外し、更新後の読み取りモデルを返します。所属していない場合も成功します。
func (s *Service) RemoveMember(ctx context.Context, subdivisionID, employeeID int64) (*Projection, error) {
	return s.mutate(ctx, subdivisionID, employeeID, func(txCtx context.Context, _ *Subdivision) error {
		return s.repo.RemoveMember(txCtx, subdivisionID, employeeID)
	})
}

// mutate は部署行をロックして社員の存在を確認したうえで fn を実行し、同一トランザクション内で読み取りモデルを返します。
func (s *Service) mutate(ctx context.Context, subdivisionID, employeeID int64, fn func(context.Context, *Subdivision) error) (*Projection, error) {
	if subdivisionID <= 0 {
		return nil, ErrInvalidID
	}
	if employeeID <= 0 {
		return nil, ErrInvalidEmployeeID
	}

	var projection *Projection
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.lockAndFind(txCtx, subdivisionID)
		if err != nil {
			return err
		}
		if _, err := s.employees.FindByID(txCtx, employeeID); err != nil {
			return err
		}
		if err := fn(txCtx, existing); err != nil {
			return err
		}

		result, err := s.repo.FindProjection(txCtx, subdivisionID)
		if err != nil {
			return err
		}
		projection = result
		return nil
	}); err != nil {
		return nil, err
	}

	return projection, nil
}
