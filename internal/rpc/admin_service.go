package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// AdminServer is the client-facing RPC surface: document CRUD, search, and
// cluster administration. Write-shaped methods enforce the leader-only rule
// through the server's ensureLeader helper before doing anything else.
type AdminServer interface {
	PutDocument(ctx context.Context, req *PutDocumentRequest) (*PutDocumentResponse, error)
	GetDocument(ctx context.Context, req *GetDocumentRequest) (*GetDocumentResponse, error)
	DeleteDocument(ctx context.Context, req *DeleteDocumentRequest) (*DeleteDocumentResponse, error)
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	ListNodes(ctx context.Context, req *ListNodesRequest) (*ListNodesResponse, error)
	GetNodeDetails(ctx context.Context, req *GetNodeDetailsRequest) (*GetNodeDetailsResponse, error)
	JoinCluster(ctx context.Context, req *JoinClusterRequest) (*JoinClusterResponse, error)
	RemoveNode(ctx context.Context, req *RemoveNodeRequest) (*RemoveNodeResponse, error)
	GetPartitions(ctx context.Context, req *GetPartitionsRequest) (*GetPartitionsResponse, error)
	TriggerRebalance(ctx context.Context, req *TriggerRebalanceRequest) (*TriggerRebalanceResponse, error)
	GetMaster(ctx context.Context, req *GetMasterRequest) (*GetMasterResponse, error)
	TriggerElection(ctx context.Context, req *TriggerElectionRequest) (*TriggerElectionResponse, error)
	Health(ctx context.Context, req *HealthRequest) (*HealthResponse, error)
	GetShardStats(ctx context.Context, req *GetShardStatsRequest) (*GetShardStatsResponse, error)
}

const adminServiceName = "distrisearch.Admin"

func adminPutDocumentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PutDocumentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).PutDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/PutDocument"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).PutDocument(ctx, req.(*PutDocumentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminGetDocumentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetDocumentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).GetDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/GetDocument"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).GetDocument(ctx, req.(*GetDocumentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminDeleteDocumentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeleteDocumentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).DeleteDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/DeleteDocument"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).DeleteDocument(ctx, req.(*DeleteDocumentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminSearchHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SearchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).Search(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/Search"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).Search(ctx, req.(*SearchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminListNodesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListNodesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).ListNodes(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/ListNodes"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).ListNodes(ctx, req.(*ListNodesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminGetNodeDetailsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetNodeDetailsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).GetNodeDetails(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/GetNodeDetails"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).GetNodeDetails(ctx, req.(*GetNodeDetailsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminJoinClusterHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(JoinClusterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).JoinCluster(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/JoinCluster"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).JoinCluster(ctx, req.(*JoinClusterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminRemoveNodeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RemoveNodeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).RemoveNode(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/RemoveNode"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).RemoveNode(ctx, req.(*RemoveNodeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminGetPartitionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetPartitionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).GetPartitions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/GetPartitions"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).GetPartitions(ctx, req.(*GetPartitionsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminTriggerRebalanceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(TriggerRebalanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).TriggerRebalance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/TriggerRebalance"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).TriggerRebalance(ctx, req.(*TriggerRebalanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminGetMasterHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetMasterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).GetMaster(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/GetMaster"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).GetMaster(ctx, req.(*GetMasterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminTriggerElectionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(TriggerElectionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).TriggerElection(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/TriggerElection"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).TriggerElection(ctx, req.(*TriggerElectionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminHealthHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HealthRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/Health"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).Health(ctx, req.(*HealthRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func adminGetShardStatsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetShardStatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).GetShardStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: adminServiceName + "/GetShardStats"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServer).GetShardStats(ctx, req.(*GetShardStatsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var adminServiceDesc = grpc.ServiceDesc{
	ServiceName: adminServiceName,
	HandlerType: (*AdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PutDocument", Handler: adminPutDocumentHandler},
		{MethodName: "GetDocument", Handler: adminGetDocumentHandler},
		{MethodName: "DeleteDocument", Handler: adminDeleteDocumentHandler},
		{MethodName: "Search", Handler: adminSearchHandler},
		{MethodName: "ListNodes", Handler: adminListNodesHandler},
		{MethodName: "GetNodeDetails", Handler: adminGetNodeDetailsHandler},
		{MethodName: "JoinCluster", Handler: adminJoinClusterHandler},
		{MethodName: "RemoveNode", Handler: adminRemoveNodeHandler},
		{MethodName: "GetPartitions", Handler: adminGetPartitionsHandler},
		{MethodName: "TriggerRebalance", Handler: adminTriggerRebalanceHandler},
		{MethodName: "GetMaster", Handler: adminGetMasterHandler},
		{MethodName: "TriggerElection", Handler: adminTriggerElectionHandler},
		{MethodName: "Health", Handler: adminHealthHandler},
		{MethodName: "GetShardStats", Handler: adminGetShardStatsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/rpc/admin_service.go",
}

// RegisterAdminServer attaches an AdminServer implementation to a grpc
// server instance.
func RegisterAdminServer(s *grpc.Server, srv AdminServer) {
	s.RegisterService(&adminServiceDesc, srv)
}
