package grpcserver

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"wardRecords/internal/auth"
	"wardRecords/internal/files"
	"wardRecords/models"
)

const (
	MaintenanceServiceName = "wardfiles.maintenance.v1.MaintenanceService"

	ReconcileFullMethod      = "/" + MaintenanceServiceName + "/Reconcile"
	ListFilesFullMethod      = "/" + MaintenanceServiceName + "/ListFiles"
	ListUsersFullMethod      = "/" + MaintenanceServiceName + "/ListUsers"
	UpdateUserRoleFullMethod = "/" + MaintenanceServiceName + "/UpdateUserRole"
)

// MaintenanceServiceServer is the server API for the maintenance service.
// Messages are well-known types so no generated code is needed.
type MaintenanceServiceServer interface {
	// Reconcile sweeps the upload directory. Request fields: remove_orphans, prune_dangling (bool).
	Reconcile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListFiles returns every upload record under "files".
	ListFiles(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// ListUsers pages through accounts under "users". Request fields: limit, offset (number).
	ListUsers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// UpdateUserRole reassigns a role and signs the user out. Request fields: username, role (string).
	UpdateUserRole(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UserDirectory is satisfied by *repository.UserRepository.
type UserDirectory interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	UpdateRoleByUsername(ctx context.Context, username string, role models.Role) error
}

// SessionRevoker is satisfied by *repository.SessionRepository.
type SessionRevoker interface {
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)
}

// MaintenanceServer implements MaintenanceServiceServer.
type MaintenanceServer struct {
	Reconciler *files.Reconciler
	Files      files.Lister
	Users      UserDirectory
	Sessions   SessionRevoker
	// Roles may call the service; empty means any authenticated caller.
	Roles []models.Role
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

func (s *MaintenanceServer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *MaintenanceServer) authorize(ctx context.Context) error {
	if len(s.Roles) == 0 {
		_, err := auth.RequirePrincipal(ctx)
		return err
	}
	_, err := auth.RequireAnyRole(ctx, s.Roles...)
	return err
}

// Reconcile runs one sweep. Without options it only reports.
func (s *MaintenanceServer) Reconcile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	opts := files.SweepOptions{
		RemoveOrphans: boolField(req, "remove_orphans"),
		PruneDangling: boolField(req, "prune_dangling"),
	}
	report, err := s.Reconciler.Sweep(ctx, opts)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "sweep: %v", err)
	}

	orphans := make([]any, 0, len(report.Orphans))
	for _, p := range report.Orphans {
		orphans = append(orphans, p)
	}
	dangling := make([]any, 0, len(report.Dangling))
	for _, rec := range report.Dangling {
		dangling = append(dangling, fileValue(rec))
	}
	out, err := structpb.NewStruct(map[string]any{
		"orphans":         orphans,
		"dangling":        dangling,
		"removed_orphans": report.RemovedOrphans,
		"pruned_records":  report.PrunedRecords,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode report: %v", err)
	}
	return out, nil
}

// ListFiles returns the upload metadata table.
func (s *MaintenanceServer) ListFiles(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	recs, err := s.Files.List(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list files: %v", err)
	}
	list := make([]any, 0, len(recs))
	for _, rec := range recs {
		list = append(list, fileValue(rec))
	}
	out, err := structpb.NewStruct(map[string]any{"files": list})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode files: %v", err)
	}
	return out, nil
}

// ListUsers returns one page of accounts, oldest first.
func (s *MaintenanceServer) ListUsers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	users, err := s.Users.List(ctx, intField(req, "limit"), intField(req, "offset"))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list users: %v", err)
	}
	list := make([]any, 0, len(users))
	for _, u := range users {
		list = append(list, userValue(u))
	}
	out, err := structpb.NewStruct(map[string]any{"users": list})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode users: %v", err)
	}
	return out, nil
}

// UpdateUserRole changes a user's role and ends their open sessions,
// so the new role applies from the next login.
func (s *MaintenanceServer) UpdateUserRole(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(stringField(req, "username"))
	if username == "" {
		return nil, status.Error(codes.InvalidArgument, "username is required")
	}
	role, ok := models.ParseRole(stringField(req, "role"))
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown role %q", stringField(req, "role"))
	}

	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get user: %v", err)
	}
	if u == nil {
		return nil, status.Errorf(codes.NotFound, "user %q not found", username)
	}
	if u.Role != role {
		if err := s.Users.UpdateRoleByUsername(ctx, username, role); err != nil {
			return nil, status.Errorf(codes.Internal, "update role: %v", err)
		}
		revoked, err := s.Sessions.DeleteByUserID(ctx, u.ID)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "revoke sessions: %v", err)
		}
		s.logger().InfoContext(ctx, "user role changed",
			slog.String("user", username), slog.String("from", string(u.Role)), slog.String("to", string(role)),
			slog.String("by", caller.Username), slog.Int64("sessions_revoked", revoked))
		u.Role = role
	}

	out, err := structpb.NewStruct(userValue(*u))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode user: %v", err)
	}
	return out, nil
}

func userValue(u models.User) map[string]any {
	return map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"role":     string(u.Role),
	}
}

func fileValue(rec models.UploadedFile) map[string]any {
	return map[string]any{
		"id":         rec.ID,
		"nombre":     rec.OriginalName,
		"tipo":       rec.MIMEType,
		"ruta":       rec.StoredPath,
		"created_at": rec.CreatedAt,
	}
}

func boolField(s *structpb.Struct, key string) bool {
	if s == nil {
		return false
	}
	v, ok := s.GetFields()[key]
	return ok && v.GetBoolValue()
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

func intField(s *structpb.Struct, key string) int {
	if s == nil {
		return 0
	}
	return int(s.GetFields()[key].GetNumberValue())
}

// RegisterMaintenanceServer registers srv on s.
func RegisterMaintenanceServer(s grpc.ServiceRegistrar, srv MaintenanceServiceServer) {
	s.RegisterService(&MaintenanceServiceDesc, srv)
}

// MaintenanceServiceDesc describes the maintenance service for grpc.Server.
var MaintenanceServiceDesc = grpc.ServiceDesc{
	ServiceName: MaintenanceServiceName,
	HandlerType: (*MaintenanceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Reconcile", Handler: reconcileHandler},
		{MethodName: "ListFiles", Handler: listFilesHandler},
		{MethodName: "ListUsers", Handler: listUsersHandler},
		{MethodName: "UpdateUserRole", Handler: updateUserRoleHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wardfiles/maintenance/v1/maintenance.proto",
}

func reconcileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MaintenanceServiceServer).Reconcile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ReconcileFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MaintenanceServiceServer).Reconcile(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listFilesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MaintenanceServiceServer).ListFiles(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListFilesFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MaintenanceServiceServer).ListFiles(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func listUsersHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MaintenanceServiceServer).ListUsers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListUsersFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MaintenanceServiceServer).ListUsers(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func updateUserRoleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MaintenanceServiceServer).UpdateUserRole(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UpdateUserRoleFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MaintenanceServiceServer).UpdateUserRole(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// MaintenanceClient calls the maintenance service.
type MaintenanceClient struct {
	cc grpc.ClientConnInterface
}

func NewMaintenanceClient(cc grpc.ClientConnInterface) *MaintenanceClient {
	return &MaintenanceClient{cc: cc}
}

func (c *MaintenanceClient) Reconcile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ReconcileFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MaintenanceClient) ListFiles(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListFilesFullMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MaintenanceClient) ListUsers(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListUsersFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MaintenanceClient) UpdateUserRole(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, UpdateUserRoleFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
