package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ClusterServer is the node-to-node RPC surface: heartbeats, replicated
// writes, query fan-out targets, and shard-locator gossip. internal/rpc's
// Server implements this directly, the way a single gRPC gateway implements
// proto.WarrenAPIServer.
type ClusterServer interface {
	Heartbeat(ctx context.Context, req *HeartbeatRequest) (*HeartbeatResponse, error)
	ReplicateDoc(ctx context.Context, req *ReplicateDocRequest) (*ReplicateDocResponse, error)
	RollbackDoc(ctx context.Context, req *RollbackDocRequest) (*RollbackDocResponse, error)
	DeleteDoc(ctx context.Context, req *DeleteDocRequest) (*DeleteDocResponse, error)
	SearchLocal(ctx context.Context, req *SearchLocalRequest) (*SearchLocalResponse, error)
	UpdateShard(ctx context.Context, req *UpdateShardRequest) (*UpdateShardResponse, error)
	ReplicateVersion(ctx context.Context, req *ReplicateVersionRequest) (*ReplicateVersionResponse, error)
}

const clusterServiceName = "distrisearch.Cluster"

func clusterHeartbeatHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HeartbeatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterServer).Heartbeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: clusterServiceName + "/Heartbeat"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterServer).Heartbeat(ctx, req.(*HeartbeatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func clusterReplicateDocHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReplicateDocRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterServer).ReplicateDoc(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: clusterServiceName + "/ReplicateDoc"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterServer).ReplicateDoc(ctx, req.(*ReplicateDocRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func clusterRollbackDocHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RollbackDocRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterServer).RollbackDoc(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: clusterServiceName + "/RollbackDoc"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterServer).RollbackDoc(ctx, req.(*RollbackDocRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func clusterDeleteDocHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeleteDocRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterServer).DeleteDoc(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: clusterServiceName + "/DeleteDoc"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterServer).DeleteDoc(ctx, req.(*DeleteDocRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func clusterSearchLocalHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SearchLocalRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterServer).SearchLocal(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: clusterServiceName + "/SearchLocal"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterServer).SearchLocal(ctx, req.(*SearchLocalRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func clusterUpdateShardHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpdateShardRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterServer).UpdateShard(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: clusterServiceName + "/UpdateShard"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterServer).UpdateShard(ctx, req.(*UpdateShardRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func clusterReplicateVersionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReplicateVersionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterServer).ReplicateVersion(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: clusterServiceName + "/ReplicateVersion"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterServer).ReplicateVersion(ctx, req.(*ReplicateVersionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// clusterServiceDesc mimics the shape protoc-gen-go-grpc would generate for
// the cluster service, hand-written because no .pb.go stubs exist in this
// exercise (see DESIGN.md).
var clusterServiceDesc = grpc.ServiceDesc{
	ServiceName: clusterServiceName,
	HandlerType: (*ClusterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Heartbeat", Handler: clusterHeartbeatHandler},
		{MethodName: "ReplicateDoc", Handler: clusterReplicateDocHandler},
		{MethodName: "RollbackDoc", Handler: clusterRollbackDocHandler},
		{MethodName: "DeleteDoc", Handler: clusterDeleteDocHandler},
		{MethodName: "SearchLocal", Handler: clusterSearchLocalHandler},
		{MethodName: "UpdateShard", Handler: clusterUpdateShardHandler},
		{MethodName: "ReplicateVersion", Handler: clusterReplicateVersionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/rpc/cluster_service.go",
}

// RegisterClusterServer attaches a ClusterServer implementation to a grpc
// server instance, equivalent to generated code's RegisterXxxServer.
func RegisterClusterServer(s *grpc.Server, srv ClusterServer) {
	s.RegisterService(&clusterServiceDesc, srv)
}
